/*
Package knowledge renders hypothesis cards as markdown, stores them in a
pail bucket, and optionally mirrors them to a GitHub repository.
*/
package knowledge

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/discovery-tools/scout"
	"github.com/discovery-tools/scout/model"
)

// CardNames are the resolved catalogue names shown in the Framework
// section. Empty names render as blanks.
type CardNames struct {
	VPPoint     string
	ICP         string
	SubVertical string
}

// CardFacts are appended to an enriched card.
type CardFacts struct {
	TALSize int
	Metrics model.HypothesisMetrics
}

// Filename returns the card's file name: the id followed by the title with
// everything but letters, digits, '-' and '_' removed.
func Filename(h *model.Hypothesis) string {
	var b strings.Builder
	for _, r := range h.Title {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	title := b.String()
	if title == "" {
		title = "hypothesis"
	}
	return fmt.Sprintf("%d-%s.md", h.ID, title)
}

// FilenamePrefix is shared by every card name of the hypothesis, whatever
// its title was when the card was written.
func FilenamePrefix(id int) string { return fmt.Sprintf("%d-", id) }

func optionalID(id *int) string {
	if id == nil || *id == 0 {
		return ""
	}
	return fmt.Sprint(*id)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(scout.ShortDateFormat)
}

// RenderCard produces the base markdown card. It never touches the
// database; names must be resolved by the caller.
func RenderCard(h *model.Hypothesis, names CardNames) string {
	lines := []string{
		fmt.Sprintf("# Hypothesis #%d: %s", h.ID, h.Title),
		"",
		fmt.Sprintf("- **Status**: %s", h.Status),
		fmt.Sprintf("- **Channel**: %s", h.Channel),
		fmt.Sprintf("- **Owner user id**: %d", h.OwnerUserID),
		fmt.Sprintf("- **Decision**: %s", h.Decision),
		"",
		"## Framework",
		fmt.Sprintf("- **VP Point**: %s (id=%s)", names.VPPoint, optionalID(h.VPPointID)),
		fmt.Sprintf("- **ICP**: %s (id=%s)", names.ICP, optionalID(h.ICPID)),
		fmt.Sprintf("- **Vertical/Sub**: %s (id=%s)", names.SubVertical, optionalID(h.SubVerticalID)),
		"",
		"### Pain",
		h.Pain,
		"",
		"### Expected signal",
		h.ExpectedSignal,
		"",
		"### Disqualifiers",
		h.Disqualifiers,
		"",
		"## Segment / ICP",
		h.Segment,
		"",
		"## Problem",
		h.Problem,
		"",
		"## Assumption",
		h.Assumption,
		"",
		"## Success metric",
		h.SuccessMetric,
		"",
		"## Minimal signal",
		h.MinimalSignal,
		"",
	}
	if h.StartDate != nil || h.EndDate != nil {
		lines = append(lines,
			"## Dates",
			"- Start: "+optionalDate(h.StartDate),
			"- End: "+optionalDate(h.EndDate),
			"",
		)
	}

	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace) + "\n"
}

// EnrichCard appends the Facts section to a rendered card. Rates are only
// listed once there are calls.
func EnrichCard(card string, facts CardFacts) string {
	var b strings.Builder
	b.WriteString(strings.TrimRightFunc(card, unicode.IsSpace))
	b.WriteString("\n\n## Facts\n")
	fmt.Fprintf(&b, "- **TAL size**: %d\n", facts.TALSize)
	fmt.Fprintf(&b, "- **Calls**: %d\n", facts.Metrics.TotalCalls)
	if facts.Metrics.TotalCalls > 0 {
		fmt.Fprintf(&b, "- **Pain confirmed rate**: %d%%\n", facts.Metrics.PainRate)
		fmt.Fprintf(&b, "- **Interest rate**: %d%%\n", facts.Metrics.InterestRate)
		fmt.Fprintf(&b, "- **Follow-up rate**: %d%%\n", facts.Metrics.FollowRate)
	}
	return b.String()
}
