package model

import (
	"encoding/json"
	"testing"
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportWrongType(t *testing.T) {
	for name, m := range map[string]Model{
		"User":       &APIUser{},
		"Hypothesis": &APIHypothesis{},
		"TAL":        &APITAL{},
		"Call":       &APICall{},
		"Metrics":    &APIMetrics{},
		"Document":   &APIDocument{},
		"Import":     &APIImportResult{},
		"Reindex":    &APIReindexResult{},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, m.Import("nope"))
		})
	}
}

func TestUserImport(t *testing.T) {
	u := &dbmodel.User{ID: 4, Email: "a@b.c", Role: "admin", APIKey: "secret"}
	api := &APIUser{}
	require.NoError(t, api.Import(u))
	assert.Equal(t, 4, api.ID)
	assert.True(t, api.IsAdmin)

	out, err := json.Marshal(api)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")

	var nilUser *dbmodel.User
	assert.Error(t, api.Import(nilUser))
}

func TestHypothesisImport(t *testing.T) {
	start := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	h := dbmodel.Hypothesis{
		ID:        3,
		Title:     "t",
		Decision:  dbmodel.DecisionOpen,
		VPPointID: utility.ToIntPtr(2),
		StartDate: &start,
	}
	api := &APIHypothesis{}
	require.NoError(t, api.Import(h))
	api.SetNames("Speed", "", "")

	assert.Equal(t, "t", utility.FromStringPtr(api.Title))
	assert.Equal(t, "Speed", utility.FromStringPtr(api.VPPointName))
	assert.Nil(t, api.ICPName)

	out, err := json.Marshal(api)
	require.NoError(t, err)
	doc := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "2024-01-08", doc["start_date"])
	assert.Nil(t, doc["end_date"])
	assert.Equal(t, float64(2), doc["vp_point_id"])
	assert.Nil(t, doc["icp_id"])
}

func TestMetricsImport(t *testing.T) {
	api := &APIMetrics{}
	require.NoError(t, api.Import(dbmodel.HypothesisMetrics{TotalCalls: 2, PainRate: 50, FirstPainCall: utility.ToIntPtr(2)}))
	assert.Equal(t, 50, api.PainRate)
	assert.Equal(t, dbmodel.DecisionHint, api.DecisionHint)

	weekly := &APIWeeklyMetric{}
	require.NoError(t, weekly.Import(dbmodel.WeeklyMetric{
		HypothesisID: 6,
		WeekStart:    time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		Payload:      dbmodel.HypothesisMetrics{TotalCalls: 1},
	}))
	assert.Equal(t, 6, weekly.Metrics.HypothesisID)
	assert.Empty(t, weekly.Metrics.DecisionHint)
	out, err := json.Marshal(weekly)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"week_start":"2024-01-08"`)
}

func TestDocumentImport(t *testing.T) {
	api := &APIDocument{}
	require.NoError(t, api.Import(dbmodel.Document{ID: 1, RelPath: "docs/a.md", SizeBytes: 2048, MtimeUnix: 1700000000}))
	assert.Equal(t, "2.0 kB", api.Size)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), time.Time(api.ModifiedAt))
}

func TestOperationRunImport(t *testing.T) {
	finished := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

	imp := &APIImportResult{}
	require.NoError(t, imp.Import(dbmodel.OperationRun{
		ID:         dbmodel.OperationCompanyImport,
		Import:     &dbmodel.ImportResult{TotalRows: 3, Inserted: 2, Skipped: 1, Path: "Companies.csv"},
		FinishedAt: finished,
	}))
	assert.Equal(t, 2, imp.Inserted)
	assert.Equal(t, finished, time.Time(imp.FinishedAt))
	assert.Error(t, imp.Import(dbmodel.OperationRun{ID: dbmodel.OperationCompanyImport}))

	re := &APIReindexResult{}
	require.NoError(t, re.Import(dbmodel.OperationRun{
		ID:      dbmodel.OperationFilesReindex,
		Reindex: &dbmodel.ReindexResult{TotalScanned: 4, Deleted: 1},
	}))
	assert.Equal(t, 4, re.TotalScanned)
	assert.Equal(t, 1, re.Deleted)
}
