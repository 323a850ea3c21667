package knowledge

import (
	"strings"
	"testing"
	"time"

	"github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/utility"
	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	for name, test := range map[string]struct {
		id       int
		title    string
		expected string
	}{
		"Plain":       {id: 1, title: "LowFXfees", expected: "1-LowFXfees.md"},
		"Punctuation": {id: 2, title: "Low FX fees: v2!", expected: "2-LowFXfeesv2.md"},
		"KeepsDashes": {id: 3, title: "cfo_pain-points", expected: "3-cfo_pain-points.md"},
		"Unicode":     {id: 4, title: "Гипотеза 4", expected: "4-Гипотеза4.md"},
		"Empty":       {id: 5, title: "?!", expected: "5-hypothesis.md"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, Filename(&model.Hypothesis{ID: test.id, Title: test.title}))
		})
	}
	assert.Equal(t, "12-", FilenamePrefix(12))
}

func TestRenderCard(t *testing.T) {
	t.Run("Minimal", func(t *testing.T) {
		h := &model.Hypothesis{
			ID:          7,
			OwnerUserID: 3,
			Title:       "Test",
			Status:      "draft",
			Decision:    "open",
		}
		expected := "# Hypothesis #7: Test\n" +
			"\n" +
			"- **Status**: draft\n" +
			"- **Channel**: \n" +
			"- **Owner user id**: 3\n" +
			"- **Decision**: open\n" +
			"\n" +
			"## Framework\n" +
			"- **VP Point**:  (id=)\n" +
			"- **ICP**:  (id=)\n" +
			"- **Vertical/Sub**:  (id=)\n" +
			"\n" +
			"### Pain\n" +
			"\n" +
			"\n" +
			"### Expected signal\n" +
			"\n" +
			"\n" +
			"### Disqualifiers\n" +
			"\n" +
			"\n" +
			"## Segment / ICP\n" +
			"\n" +
			"\n" +
			"## Problem\n" +
			"\n" +
			"\n" +
			"## Assumption\n" +
			"\n" +
			"\n" +
			"## Success metric\n" +
			"\n" +
			"\n" +
			"## Minimal signal\n"
		assert.Equal(t, expected, RenderCard(h, CardNames{}))
	})
	t.Run("FrameworkAndDates", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		h := &model.Hypothesis{
			ID:            9,
			OwnerUserID:   1,
			Title:         "Fintech",
			Status:        "active",
			Channel:       "email",
			Decision:      "validated",
			VPPointID:     utility.ToIntPtr(2),
			ICPID:         utility.ToIntPtr(4),
			Pain:          "recon is manual",
			MinimalSignal: "3 of 10",
			StartDate:     &start,
		}
		card := RenderCard(h, CardNames{VPPoint: "Speed", ICP: "CFO"})
		assert.Contains(t, card, "- **VP Point**: Speed (id=2)\n")
		assert.Contains(t, card, "- **ICP**: CFO (id=4)\n")
		assert.Contains(t, card, "- **Vertical/Sub**:  (id=)\n")
		assert.Contains(t, card, "### Pain\nrecon is manual\n\n")
		assert.Contains(t, card, "## Minimal signal\n3 of 10\n\n## Dates\n- Start: 2024-03-01\n- End:\n")
		assert.True(t, strings.HasSuffix(card, "- End:\n"))
	})
	t.Run("EmptyDecisionRenderedAsIs", func(t *testing.T) {
		card := RenderCard(&model.Hypothesis{ID: 1, Title: "x"}, CardNames{})
		assert.Contains(t, card, "- **Decision**: \n")
		assert.NotContains(t, card, "**Decision**: open")
	})
}

func TestEnrichCard(t *testing.T) {
	base := "# Hypothesis #1: x\n\n## Minimal signal\n"

	t.Run("NoCalls", func(t *testing.T) {
		out := EnrichCard(base, CardFacts{TALSize: 4})
		assert.Equal(t, "# Hypothesis #1: x\n\n## Minimal signal\n\n## Facts\n- **TAL size**: 4\n- **Calls**: 0\n", out)
	})
	t.Run("WithCalls", func(t *testing.T) {
		out := EnrichCard(base, CardFacts{
			TALSize: 2,
			Metrics: model.HypothesisMetrics{TotalCalls: 3, PainRate: 67, InterestRate: 33, FollowRate: 0},
		})
		assert.Equal(t, "# Hypothesis #1: x\n\n## Minimal signal\n\n## Facts\n"+
			"- **TAL size**: 2\n"+
			"- **Calls**: 3\n"+
			"- **Pain confirmed rate**: 67%\n"+
			"- **Interest rate**: 33%\n"+
			"- **Follow-up rate**: 0%\n", out)
	})
}
