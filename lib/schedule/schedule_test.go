package schedule

import (
	"testing"
	"time"

	"greyhound-backend/lib/scrapers/greyhound"
	"greyhound-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	t, err := time.ParseInLocation(dateLayout, value, timezone.Location)
	if err != nil {
		panic(err)
	}
	return t
}

func record(types ...string) greyhound.BinRecord {
	return greyhound.BinRecord{WasteTypes: types}
}

func TestNormalize(t *testing.T) {
	now := day("2024-06-01").Add(time.Hour * 9)
	days := map[string][]greyhound.BinRecord{
		"2024-06-01": {record("GREEN")},
		"2024-06-08": {record("BLACK"), record("BROWN")},
	}

	result := Normalize(days, now)
	require.Len(t, result.Events, 2)
	require.Equal(t, day("2024-06-01"), result.Events[0].Date)
	require.Equal(t, []string{"GREEN"}, result.Events[0].Bins)

	require.NotNil(t, result.Summary)
	require.Equal(t, day("2024-06-01"), result.Summary.NextCollectionDate)
	require.Equal(t, "GREEN", result.Summary.BinTypes)
	require.Equal(t, 0, result.Summary.DaysUntilCollection)
	require.Equal(t, "Today", result.Summary.CollectionStatus)
	require.False(t, result.Summary.ServiceDisruption)
}

func TestNormalizeWindow(t *testing.T) {
	now := day("2024-06-01").Add(time.Hour * 12)
	days := map[string][]greyhound.BinRecord{
		"2024-05-31": {record("BLACK")}, // yesterday, out
		"2024-06-01": {record("GREEN")}, // today, in
		"2024-07-01": {record("BROWN")}, // day 30, in
		"2024-07-02": {record("BLACK")}, // day 31, out
	}

	result := Normalize(days, now)
	require.Len(t, result.Events, 2)
	require.Equal(t, day("2024-06-01"), result.Events[0].Date)
	require.Equal(t, day("2024-07-01"), result.Events[1].Date)
}

func TestNormalizeSkipsInvalidDates(t *testing.T) {
	now := day("2024-06-01")
	days := map[string][]greyhound.BinRecord{
		"not-a-date": {record("BLACK")},
		"06/15/2024": {record("BROWN")},
		"2024-06-08": {record("GREEN")},
	}

	result := Normalize(days, now)
	require.Len(t, result.Events, 1)
	require.Equal(t, day("2024-06-08"), result.Events[0].Date)
}

func TestNormalizeDropsTypelessRecords(t *testing.T) {
	now := day("2024-06-01")
	days := map[string][]greyhound.BinRecord{
		"2024-06-08": {record(), record("BROWN")},
	}

	result := Normalize(days, now)
	require.Len(t, result.Events, 1)
	require.Equal(t, []string{"BROWN"}, result.Events[0].Bins)
}

func TestNormalizeEmpty(t *testing.T) {
	result := Normalize(map[string][]greyhound.BinRecord{}, day("2024-06-01"))
	require.Empty(t, result.Events)
	require.Nil(t, result.Summary)

	// everything outside the window behaves like no data at all
	result = Normalize(map[string][]greyhound.BinRecord{
		"2020-01-01": {record("BLACK")},
	}, day("2024-06-01"))
	require.Empty(t, result.Events)
	require.Nil(t, result.Summary)
}

func TestNormalizeSortsExplicitly(t *testing.T) {
	now := day("2024-06-01")
	days := map[string][]greyhound.BinRecord{
		"2024-06-20": {record("GREEN")},
		"2024-06-05": {record("BLACK")},
		"2024-06-12": {record("BROWN")},
	}

	result := Normalize(days, now)
	require.Equal(t, day("2024-06-05"), result.Events[0].Date)
	require.Equal(t, day("2024-06-12"), result.Events[1].Date)
	require.Equal(t, day("2024-06-20"), result.Events[2].Date)
	require.Equal(t, day("2024-06-05"), result.Summary.NextCollectionDate)
}

func TestNormalizeStatusLabels(t *testing.T) {
	cases := []struct {
		date   string
		days   int
		status string
	}{
		{date: "2024-06-01", days: 0, status: "Today"},
		{date: "2024-06-02", days: 1, status: "Tomorrow"},
		{date: "2024-06-06", days: 5, status: "In 5 days"},
	}

	for _, test := range cases {
		t.Run(test.status, func(t *testing.T) {
			result := Normalize(map[string][]greyhound.BinRecord{
				test.date: {record("BLACK")},
			}, day("2024-06-01"))
			require.Equal(t, test.days, result.Summary.DaysUntilCollection)
			require.Equal(t, test.status, result.Summary.CollectionStatus)
		})
	}
}

func TestNormalizeMultipleBinsOnNextDay(t *testing.T) {
	result := Normalize(map[string][]greyhound.BinRecord{
		"2024-06-08": {record("BLACK"), record("BROWN")},
	}, day("2024-06-01"))
	require.Equal(t, "BLACK, BROWN", result.Summary.BinTypes)
}

func TestNormalizeNextByBin(t *testing.T) {
	result := Normalize(map[string][]greyhound.BinRecord{
		"2024-06-05": {record("BLACK")},
		"2024-06-12": {record("BLACK"), record("GREEN")},
		"2024-06-19": {record("BROWN")},
	}, day("2024-06-01"))

	require.Equal(t, map[string]time.Time{
		BinBlack: day("2024-06-05"),
		BinGreen: day("2024-06-12"),
		BinBrown: day("2024-06-19"),
	}, result.Summary.NextByBin)
}

func TestNormalizeServiceDisruption(t *testing.T) {
	result := Normalize(map[string][]greyhound.BinRecord{
		"2024-06-05": {{WasteTypes: []string{"BLACK"}, Cancelled: true}},
	}, day("2024-06-01"))
	require.True(t, result.Summary.ServiceDisruption)

	// one bin still running means no disruption
	result = Normalize(map[string][]greyhound.BinRecord{
		"2024-06-05": {
			{WasteTypes: []string{"BLACK"}, Cancelled: true},
			{WasteTypes: []string{"GREEN"}},
		},
	}, day("2024-06-01"))
	require.False(t, result.Summary.ServiceDisruption)
}

func TestNormalizeIdempotent(t *testing.T) {
	now := day("2024-06-01").Add(time.Hour * 7)
	days := map[string][]greyhound.BinRecord{
		"2024-06-01": {record("GREEN")},
		"2024-06-08": {record("BLACK"), record("BROWN")},
		"2024-06-15": {record("GREEN")},
	}

	first := Normalize(days, now)
	second := Normalize(days, now)
	require.Empty(t, cmp.Diff(first, second))
}

func TestCanonicalCode(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{label: "GREEN", want: BinGreen},
		{label: "green", want: BinGreen},
		{label: " Brown ", want: BinBrown},
		{label: "Green Recycling", want: BinGreen},
		{label: "BLCK", want: BinBlack},
		{label: "GLASS", want: "GLASS"},
	}

	for _, test := range cases {
		t.Run(test.label, func(t *testing.T) {
			require.Equal(t, test.want, CanonicalCode(test.label))
		})
	}
}

func TestSortBinsForDisplay(t *testing.T) {
	require.Equal(
		t,
		[]string{"BLACK", "BROWN", "GREEN"},
		SortBinsForDisplay([]string{"GREEN", "BLACK", "BROWN"}),
	)
}
