package knowledge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const githubTimeout = 10 * time.Second

// GitHubClient creates or updates files through the repository contents API.
type GitHubClient struct {
	conf scout.GitHubConfig
	// Client, when set, is used instead of the shared pool.
	Client *http.Client
}

// NewGitHubClient returns nil when sync is not configured.
func NewGitHubClient(conf scout.GitHubConfig) *GitHubClient {
	if !conf.Enabled() {
		return nil
	}
	if conf.BaseURL == "" {
		conf.BaseURL = "https://api.github.com"
	}
	if conf.Branch == "" {
		conf.Branch = "main"
	}
	return &GitHubClient{conf: conf}
}

type contentsResponse struct {
	SHA string `json:"sha"`
}

type contentsUpdate struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

func (c *GitHubClient) contentsURL(filePath string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", strings.TrimRight(c.conf.BaseURL, "/"), c.conf.Repo, filePath)
}

func (c *GitHubClient) do(ctx context.Context, client *http.Client, method, u string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Authorization", "token "+c.conf.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return client.Do(req)
}

// fileSHA returns the blob sha of the file on the branch, or an empty string
// when it does not exist yet.
func (c *GitHubClient) fileSHA(ctx context.Context, client *http.Client, filePath string) (string, error) {
	u := c.contentsURL(filePath) + "?ref=" + url.QueryEscape(c.conf.Branch)
	resp, err := c.do(ctx, client, http.MethodGet, u, nil)
	if err != nil {
		return "", errors.Wrapf(err, "problem looking up '%s'", filePath)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	out := contentsResponse{}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrapf(err, "problem decoding contents of '%s'", filePath)
	}
	return out.SHA, nil
}

// UpsertFile writes content to filePath on the configured branch.
func (c *GitHubClient) UpsertFile(ctx context.Context, filePath, content, commitMessage string) error {
	ctx, cancel := context.WithTimeout(ctx, githubTimeout)
	defer cancel()

	client := c.Client
	if client == nil {
		client = utility.GetHTTPClient()
		defer utility.PutHTTPClient(client)
	}

	sha, err := c.fileSHA(ctx, client, filePath)
	if err != nil {
		return errors.WithStack(err)
	}

	payload, err := json.Marshal(contentsUpdate{
		Message: commitMessage,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		Branch:  c.conf.Branch,
		SHA:     sha,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp, err := c.do(ctx, client, http.MethodPut, c.contentsURL(filePath), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrapf(err, "problem writing '%s'", filePath)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.Errorf("writing '%s' to %s returned %s", filePath, c.conf.Repo, resp.Status)
	}

	grip.Info(message.Fields{
		"message": "synced card to github",
		"repo":    c.conf.Repo,
		"branch":  c.conf.Branch,
		"path":    filePath,
		"update":  sha != "",
	})
	return nil
}
