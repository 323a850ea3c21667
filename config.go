package scout

import (
	"path/filepath"
	"time"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Configuration defines the settings needed to run a scout environment. The
// zero value is not valid; call Validate to fill defaults.
type Configuration struct {
	MongoDBURI         string        `yaml:"mongodb_uri"`
	DatabaseName       string        `yaml:"database_name"`
	MongoDBDialTimeout time.Duration `yaml:"dial_timeout"`
	NumWorkers         int           `yaml:"num_workers"`

	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	SecretKey   string        `yaml:"secret_key"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	CORSOrigins []string      `yaml:"cors_origins"`

	// WorkingRoot is the directory indexed by the file index; relative
	// paths in the configuration resolve against it.
	WorkingRoot           string        `yaml:"working_root"`
	CompaniesCSV          string        `yaml:"companies_csv"`
	ExcludedPaths         []string      `yaml:"excluded_paths"`
	ReindexInterval       time.Duration `yaml:"reindex_interval"`
	DisableBackgroundJobs bool          `yaml:"disable_background_jobs"`

	Knowledge KnowledgeConfig `yaml:"knowledge"`
	GitHub    GitHubConfig    `yaml:"github"`

	// PostgresDSN points at the Postgres (Supabase) database that
	// receives raw debug events.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// KnowledgeConfig selects the storage for hypothesis cards. S3 buckets use the
// default AWS credential chain.
type KnowledgeConfig struct {
	// Type is either "local" or "s3".
	Type   string `yaml:"type"`
	Path   string `yaml:"path"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// GitHubConfig enables pushing hypothesis cards to a repository through the
// contents API. Sync is disabled unless both Token and Repo are set.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	BaseURL string `yaml:"base_url"`
}

// Enabled reports whether card sync should run.
func (c GitHubConfig) Enabled() bool { return c.Token != "" && c.Repo != "" }

// Validate checks the configuration, filling in defaults for unset values.
func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.MongoDBURI == "" {
		catcher.Add(errors.New("must specify a mongodb url"))
	}
	if c.DatabaseName == "" {
		catcher.Add(errors.New("must specify a database name"))
	}
	if c.NumWorkers < 1 {
		catcher.Add(errors.New("must specify a valid number of amboy workers"))
	}
	if c.Port < 0 || c.Port > 65535 {
		catcher.Errorf("port %d is not valid", c.Port)
	}
	if c.ReindexInterval < 0 {
		catcher.New("reindex interval cannot be negative")
	}
	switch c.Knowledge.Type {
	case "", "local":
	case "s3":
		catcher.NewWhen(c.Knowledge.Bucket == "", "must specify a bucket for s3 knowledge storage")
	default:
		catcher.Errorf("knowledge storage type '%s' is not supported", c.Knowledge.Type)
	}

	if c.MongoDBDialTimeout <= 0 {
		c.MongoDBDialTimeout = 2 * time.Second
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.SecretKey == "" {
		c.SecretKey = DefaultSecretKey
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.WorkingRoot == "" {
		c.WorkingRoot = "."
	}
	if c.CompaniesCSV == "" {
		c.CompaniesCSV = "Companies.csv"
	}
	if c.Knowledge.Type == "" {
		c.Knowledge.Type = "local"
	}
	if c.Knowledge.Type == "local" && c.Knowledge.Path == "" {
		c.Knowledge.Path = "knowledge"
	}
	if c.Knowledge.Type == "s3" && c.Knowledge.Region == "" {
		c.Knowledge.Region = "us-east-1"
	}
	if c.Knowledge.Prefix == "" {
		c.Knowledge.Prefix = "hypotheses"
	}
	if c.GitHub.Branch == "" {
		c.GitHub.Branch = "main"
	}
	if c.GitHub.BaseURL == "" {
		c.GitHub.BaseURL = "https://api.github.com"
	}

	return catcher.Resolve()
}

// ResolvePath returns path unchanged when absolute, otherwise joined to the
// working root.
func (c *Configuration) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.WorkingRoot, path)
}
