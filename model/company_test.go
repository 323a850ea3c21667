package model

import (
	"context"
	"testing"

	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWebsite(t *testing.T) {
	for in, expected := range map[string]string{
		"":                           "",
		"  ":                         "",
		"Example.com":                "example.com",
		"https://Example.com/":       "example.com",
		"http://example.com/path/":   "example.com/path",
		" https://www.acme.io// ":    "www.acme.io",
		"/example.com":               "example.com",
		"ftp://example.com":          "ftp://example.com",
		"HTTPS://SHOUTY.EXAMPLE.COM": "shouty.example.com",
	} {
		assert.Equal(t, expected, NormalizeWebsite(in), in)
	}
}

func TestCompanyQueries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(ctx, t)
	defer tearDownEnv(ctx, t, env)

	companies := []Company{
		{ICP: "smb", Name: "Acme", Website: utility.ToStringPtr("acme.com")},
		{ICP: "enterprise", Name: "Globex", Website: utility.ToStringPtr("globex.io")},
		{ICP: "smb", Name: "Initech"},
	}
	require.NoError(t, InsertCompanies(ctx, env, companies))
	assert.Equal(t, companies[0].ID+1, companies[1].ID)
	assert.Equal(t, companies[0].ID+2, companies[2].ID)

	n, err := CountCompanies(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("All", func(t *testing.T) {
		out, err := FindCompanies(ctx, env, CompanyQuery{})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, "Initech", out[0].Name)
	})
	t.Run("QueryMatchesName", func(t *testing.T) {
		out, err := FindCompanies(ctx, env, CompanyQuery{Query: "ACM"})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Acme", out[0].Name)
	})
	t.Run("QueryMatchesWebsite", func(t *testing.T) {
		out, err := FindCompanies(ctx, env, CompanyQuery{Query: ".io"})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Globex", out[0].Name)
	})
	t.Run("ICP", func(t *testing.T) {
		out, err := FindCompanies(ctx, env, CompanyQuery{ICP: "smb"})
		require.NoError(t, err)
		assert.Len(t, out, 2)
	})
	t.Run("Limit", func(t *testing.T) {
		out, err := FindCompanies(ctx, env, CompanyQuery{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})
	t.Run("KnownWebsites", func(t *testing.T) {
		known, err := KnownWebsites(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"acme.com": true, "globex.io": true}, known)
	})
	t.Run("ByIDs", func(t *testing.T) {
		out, err := FindCompaniesByIDs(ctx, env, []int{companies[1].ID})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "Globex", out[0].Name)

		c, err := FindCompany(ctx, env, companies[2].ID)
		require.NoError(t, err)
		assert.Nil(t, c.Website)
	})
	t.Run("ImportRun", func(t *testing.T) {
		run, err := FindOperationRun(ctx, env, OperationCompanyImport)
		require.NoError(t, err)
		assert.Nil(t, run)

		require.NoError(t, SaveImportRun(ctx, env, ImportResult{TotalRows: 3, Inserted: 2, Skipped: 1, Path: "Companies.csv"}))
		require.NoError(t, SaveImportRun(ctx, env, ImportResult{TotalRows: 4, Inserted: 0, Skipped: 4, Path: "Companies.csv"}))
		run, err = FindOperationRun(ctx, env, OperationCompanyImport)
		require.NoError(t, err)
		require.NotNil(t, run)
		require.NotNil(t, run.Import)
		assert.Equal(t, 4, run.Import.TotalRows)
		assert.Nil(t, run.Reindex)
	})
}
