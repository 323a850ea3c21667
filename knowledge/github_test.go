package knowledge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/discovery-tools/scout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContentsAPI struct {
	sha       string
	putStatus int
	gets      []string
	puts      []contentsUpdate
	headers   http.Header
}

func (f *fakeContentsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.headers = r.Header.Clone()
	switch r.Method {
	case http.MethodGet:
		f.gets = append(f.gets, r.URL.Path+"?"+r.URL.RawQuery)
		if f.sha == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(contentsResponse{SHA: f.sha})
	case http.MethodPut:
		body := contentsUpdate{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.puts = append(f.puts, body)
		w.WriteHeader(f.putStatus)
	}
}

func TestGitHubClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newClient := func(t *testing.T, api *fakeContentsAPI) *GitHubClient {
		srv := httptest.NewServer(api)
		t.Cleanup(srv.Close)
		c := NewGitHubClient(scout.GitHubConfig{Token: "tok", Repo: "acme/notes", Branch: "kb", BaseURL: srv.URL})
		require.NotNil(t, c)
		c.Client = srv.Client()
		return c
	}

	t.Run("DisabledWithoutToken", func(t *testing.T) {
		assert.Nil(t, NewGitHubClient(scout.GitHubConfig{Repo: "acme/notes"}))
		assert.Nil(t, NewGitHubClient(scout.GitHubConfig{Token: "tok"}))
	})
	t.Run("DefaultBranch", func(t *testing.T) {
		c := NewGitHubClient(scout.GitHubConfig{Token: "tok", Repo: "acme/notes"})
		require.NotNil(t, c)
		assert.Equal(t, "main", c.conf.Branch)
		assert.Equal(t, "https://api.github.com", c.conf.BaseURL)
	})
	t.Run("Create", func(t *testing.T) {
		api := &fakeContentsAPI{putStatus: http.StatusCreated}
		c := newClient(t, api)

		require.NoError(t, c.UpsertFile(ctx, "knowledge/hypotheses/1-a.md", "# card\n", "Update hypothesis card 1"))
		require.Len(t, api.gets, 1)
		assert.Equal(t, "/repos/acme/notes/contents/knowledge/hypotheses/1-a.md?ref=kb", api.gets[0])
		require.Len(t, api.puts, 1)

		put := api.puts[0]
		assert.Equal(t, "Update hypothesis card 1", put.Message)
		assert.Equal(t, "kb", put.Branch)
		assert.Empty(t, put.SHA)
		decoded, err := base64.StdEncoding.DecodeString(put.Content)
		require.NoError(t, err)
		assert.Equal(t, "# card\n", string(decoded))

		assert.Equal(t, "token tok", api.headers.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", api.headers.Get("Accept"))
	})
	t.Run("Update", func(t *testing.T) {
		api := &fakeContentsAPI{sha: "abc123", putStatus: http.StatusOK}
		c := newClient(t, api)

		require.NoError(t, c.UpsertFile(ctx, "k/1-a.md", "x", "msg"))
		require.Len(t, api.puts, 1)
		assert.Equal(t, "abc123", api.puts[0].SHA)
	})
	t.Run("RejectedWrite", func(t *testing.T) {
		api := &fakeContentsAPI{putStatus: http.StatusConflict}
		c := newClient(t, api)

		err := c.UpsertFile(ctx, "k/1-a.md", "x", "msg")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "409")
	})
}
