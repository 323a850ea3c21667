package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	for name, test := range map[string]struct {
		x, total, expected int
	}{
		"ZeroTotal":      {x: 0, total: 0, expected: 0},
		"All":            {x: 4, total: 4, expected: 100},
		"Third":          {x: 1, total: 3, expected: 33},
		"TwoThirds":      {x: 2, total: 3, expected: 67},
		"HalfRoundsDown": {x: 1, total: 8, expected: 12},
		"HalfRoundsUp":   {x: 3, total: 8, expected: 38},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, Percent(test.x, test.total))
		})
	}
}

func TestComputeMetrics(t *testing.T) {
	t.Run("NoCalls", func(t *testing.T) {
		m := ComputeMetrics(nil)
		assert.Zero(t, m.TotalCalls)
		assert.Zero(t, m.PainRate)
		assert.Nil(t, m.FirstPainCall)
		assert.Nil(t, m.FirstFollowCall)
	})
	t.Run("FirstSignals", func(t *testing.T) {
		calls := []Call{
			{},
			{Interest: true},
			{PainConfirmed: true, FollowUp: true},
			{PainConfirmed: true},
		}
		m := ComputeMetrics(calls)
		assert.Equal(t, 4, m.TotalCalls)
		assert.Equal(t, 2, m.PainConfirmed)
		assert.Equal(t, 1, m.Interest)
		assert.Equal(t, 1, m.FollowUp)
		assert.Equal(t, 50, m.PainRate)
		assert.Equal(t, 25, m.InterestRate)
		assert.Equal(t, 25, m.FollowRate)
		require.NotNil(t, m.FirstPainCall)
		assert.Equal(t, 3, *m.FirstPainCall)
		require.NotNil(t, m.FirstFollowCall)
		assert.Equal(t, 3, *m.FirstFollowCall)
	})
	t.Run("NoFollowUp", func(t *testing.T) {
		m := ComputeMetrics([]Call{{PainConfirmed: true}})
		require.NotNil(t, m.FirstPainCall)
		assert.Equal(t, 1, *m.FirstPainCall)
		assert.Nil(t, m.FirstFollowCall)
		assert.Equal(t, 100, m.PainRate)
	})
}

func TestWeekStart(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for name, in := range map[string]time.Time{
		"Monday":    monday.Add(9 * time.Hour),
		"Wednesday": time.Date(2024, 6, 5, 23, 59, 0, 0, time.UTC),
		"Sunday":    time.Date(2024, 6, 9, 12, 0, 0, 0, time.UTC),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, monday, WeekStart(in))
		})
	}
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC)))
}

func TestDecisionHint(t *testing.T) {
	assert.Contains(t, DecisionHint, "Rule of thumb:\n")
	assert.Contains(t, DecisionHint, "< 30%")
}
