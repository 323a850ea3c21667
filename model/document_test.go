package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncDocuments(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(ctx, t)
	defer tearDownEnv(ctx, t, env)
	require.NoError(t, EnsureIndexes(ctx, env))

	scan := []FileMeta{
		{RelPath: "README.md", Ext: "md", Kind: "md", SizeBytes: 10, MtimeUnix: 100},
		{RelPath: "data/Companies.csv", Ext: "csv", Kind: "csv", SizeBytes: 2048, MtimeUnix: 300},
		{RelPath: "app/main.py", Ext: "py", Kind: "py", SizeBytes: 99, MtimeUnix: 200},
	}

	res, err := SyncDocuments(ctx, env, scan)
	require.NoError(t, err)
	assert.Equal(t, ReindexResult{TotalScanned: 3, Created: 3}, res)

	t.Run("Unchanged", func(t *testing.T) {
		res, err := SyncDocuments(ctx, env, scan)
		require.NoError(t, err)
		assert.Equal(t, ReindexResult{TotalScanned: 3}, res)
	})
	t.Run("List", func(t *testing.T) {
		docs, err := FindDocuments(ctx, env, DocumentQuery{})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		// newest index entry first, regardless of mtime
		assert.Equal(t, "app/main.py", docs[0].RelPath)
		assert.Equal(t, "data/Companies.csv", docs[1].RelPath)
		assert.Equal(t, "README.md", docs[2].RelPath)

		docs, err = FindDocuments(ctx, env, DocumentQuery{Query: "COMPANIES"})
		require.NoError(t, err)
		require.Len(t, docs, 1)

		docs, err = FindDocuments(ctx, env, DocumentQuery{Kind: "py"})
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "app/main.py", docs[0].RelPath)

		kinds, err := DocumentKinds(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, []string{"csv", "md", "py"}, kinds)

		found, err := FindDocument(ctx, env, docs[0].ID)
		require.NoError(t, err)
		assert.Equal(t, int64(99), found.SizeBytes)
	})
	t.Run("ChangedAndRemoved", func(t *testing.T) {
		next := []FileMeta{
			{RelPath: "README.md", Ext: "md", Kind: "md", SizeBytes: 12, MtimeUnix: 400},
			{RelPath: "data/Companies.csv", Ext: "csv", Kind: "csv", SizeBytes: 2048, MtimeUnix: 300},
			{RelPath: "img/logo.png", Ext: "png", Kind: "image", SizeBytes: 5, MtimeUnix: 500},
		}
		res, err := SyncDocuments(ctx, env, next)
		require.NoError(t, err)
		assert.Equal(t, ReindexResult{TotalScanned: 3, Created: 1, Updated: 1, Deleted: 1}, res)

		n, err := CountDocuments(ctx, env)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		docs, err := FindDocuments(ctx, env, DocumentQuery{})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "img/logo.png", docs[0].RelPath)
		assert.Equal(t, "data/Companies.csv", docs[1].RelPath)
		assert.Equal(t, "README.md", docs[2].RelPath)
	})
	t.Run("ReindexRun", func(t *testing.T) {
		require.NoError(t, SaveReindexRun(ctx, env, ReindexResult{TotalScanned: 3, Created: 1}))
		run, err := FindOperationRun(ctx, env, OperationFilesReindex)
		require.NoError(t, err)
		require.NotNil(t, run)
		require.NotNil(t, run.Reindex)
		assert.Equal(t, 1, run.Reindex.Created)
	})
}
