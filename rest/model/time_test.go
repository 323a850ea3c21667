package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeMarshal(t *testing.T) {
	utcLoc, err := time.LoadLocation("")
	require.NoError(t, err)
	TestTimeAsString := "\"2017-04-06T19:53:46.404Z\""
	TestTimeAsTime := time.Date(2017, time.April, 6, 19, 53, 46,
		404000000, utcLoc)
	t.Run("TestSameTimeZone", func(t *testing.T) {
		ti := NewTime(TestTimeAsTime)
		res, err := json.Marshal(ti)
		require.NoError(t, err)
		assert.Equal(t, string(res), TestTimeAsString)
	})
	t.Run("TestDifferentTimeZone", func(t *testing.T) {
		offsetZone := time.FixedZone("testZone", 10)

		ti := NewTime(TestTimeAsTime.In(offsetZone))
		res, err := json.Marshal(ti)
		require.NoError(t, err)
		assert.Equal(t, string(res), TestTimeAsString)
	})

}

func TestTimeUnmarshal(t *testing.T) {
	utcLoc, err := time.LoadLocation("")
	require.NoError(t, err)
	TestTimeAsString := "\"2017-04-06T19:53:46.404Z\""
	TestTimeAsTime := time.Date(2017, time.April, 6, 19, 53, 46,
		404000000, utcLoc)
	t.Run("TestNonNull", func(t *testing.T) {
		data := []byte(TestTimeAsString)
		res := APITime{}
		err := json.Unmarshal(data, &res)
		require.NoError(t, err)
		ti := NewTime(TestTimeAsTime)
		assert.Equal(t, res, ti)
	})
	t.Run("TestNull", func(t *testing.T) {
		data := []byte("null")
		res := APITime{}
		err := json.Unmarshal(data, &res)
		require.NoError(t, err)
		zt := time.Time(res)
		assert.True(t, zt.IsZero())
	})

}

func TestDate(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	t.Run("Parse", func(t *testing.T) {
		for name, test := range map[string]struct {
			in       string
			expected *time.Time
		}{
			"Valid":      {in: "2024-03-01", expected: &march},
			"Padded":     {in: " 2024-03-01 ", expected: &march},
			"Empty":      {in: ""},
			"BadMonth":   {in: "2024-13-01"},
			"WrongOrder": {in: "01.03.2024"},
		} {
			t.Run(name, func(t *testing.T) {
				assert.Equal(t, test.expected, ParseDate(test.in))
			})
		}
	})
	t.Run("Marshal", func(t *testing.T) {
		out, err := json.Marshal(NewDate(&march))
		require.NoError(t, err)
		assert.Equal(t, `"2024-03-01"`, string(out))

		out, err = json.Marshal(NewDate(nil))
		require.NoError(t, err)
		assert.Equal(t, "null", string(out))
	})
	t.Run("Unmarshal", func(t *testing.T) {
		var d APIDate
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-01"`), &d))
		require.NotNil(t, d.Time())
		assert.Equal(t, 1, d.Time().Day())

		require.NoError(t, json.Unmarshal([]byte(`"soon"`), &d))
		assert.Nil(t, d.Time())

		require.NoError(t, json.Unmarshal([]byte(`12`), &d))
		assert.Nil(t, d.Time())
	})
}
