package schedule

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"greyhound-backend/lib/scrapers/greyhound"
	"greyhound-backend/lib/timezone"

	"github.com/antzucaro/matchr"
)

const dateLayout = "2006-01-02"

// WindowDays bounds how far ahead collections are surfaced.
const WindowDays = 30

const (
	BinBlack = "BLACK"
	BinBrown = "BROWN"
	BinGreen = "GREEN"
)

var BinDescriptions = map[string]string{
	BinBlack: "General waste",
	BinBrown: "Organic waste",
	BinGreen: "Recycle waste",
}

var binOrder = map[string]int{
	BinBlack: 0,
	BinBrown: 1,
	BinGreen: 2,
}

var canonicalBins = []string{BinBlack, BinBrown, BinGreen}

// CollectionEvent is a single upcoming collection day.
type CollectionEvent struct {
	// midnight in the provider timezone
	Date time.Time
	// waste-category codes in the order the provider listed them
	Bins []string
	// the provider flagged every bin on this day as cancelled
	Cancelled bool
}

// CollectionSummary describes only the earliest upcoming collection,
// recomputed wholesale on every fetch.
type CollectionSummary struct {
	NextCollectionDate  time.Time
	BinTypes            string
	DaysUntilCollection int
	CollectionStatus    string
	ServiceDisruption   bool
	// earliest upcoming date per canonical bin code
	NextByBin map[string]time.Time
}

// FetchResult is the pipeline's sole output: an immutable snapshot
// superseded wholesale by the next fetch. Summary is nil exactly when
// Events is empty.
type FetchResult struct {
	Events  []CollectionEvent
	Summary *CollectionSummary
}

// CanonicalCode maps a provider waste-type label onto one of the known
// bin codes. Labels drift between template revisions ("GREEN",
// "Green Recycling", ...), fuzzy matching keeps the derived views
// stable without a lookup table per revision.
func CanonicalCode(label string) string {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	for _, code := range canonicalBins {
		if normalized == code {
			return code
		}
	}

	best := ""
	var bestScore float64
	for _, code := range canonicalBins {
		score := matchr.JaroWinkler(normalized, code, true)
		if score > bestScore {
			bestScore = score
			best = code
		}
	}
	if bestScore >= 0.75 {
		return best
	}
	return normalized
}

// Describe returns the human description for a waste-type label.
func Describe(label string) string {
	desc, ok := BinDescriptions[CanonicalCode(label)]
	if ok {
		return desc
	}
	return label
}

// SortBinsForDisplay orders codes black/brown/green for rendering,
// unknown codes sort last in their incoming order.
func SortBinsForDisplay(bins []string) []string {
	out := slices.Clone(bins)
	slices.SortStableFunc(out, func(a, b string) int {
		ai, ok := binOrder[CanonicalCode(a)]
		if !ok {
			ai = len(binOrder)
		}
		bi, ok := binOrder[CanonicalCode(b)]
		if !ok {
			bi = len(binOrder)
		}
		return ai - bi
	})
	return out
}

// daysBetween counts calendar days from a to b, rounding away the odd
// hour a DST transition inserts or removes.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// Normalize converts the raw date -> bin-record mapping into ordered,
// window-filtered events plus the next-collection summary.
//
// Tolerance is deliberately per-entry here, unlike the all-or-nothing
// payload parse upstream: one malformed date loses that entry, never
// the fetch. Events are sorted explicitly, Go map iteration order
// would otherwise decide which event counts as "next".
func Normalize(days map[string][]greyhound.BinRecord, now time.Time) FetchResult {
	today := timezone.StartOfDay(now)
	cutoff := today.AddDate(0, 0, WindowDays)

	var events []CollectionEvent
	for dateStr, records := range days {
		date, err := time.ParseInLocation(dateLayout, dateStr, timezone.Location)
		if err != nil {
			slog.Warn("skipping invalid date format", "date", dateStr)
			continue
		}
		if date.Before(today) || date.After(cutoff) {
			continue
		}

		var bins []string
		cancelled := len(records) > 0
		for _, record := range records {
			if !record.Cancelled {
				cancelled = false
			}
			// records without a waste type are dropped, not errored
			if len(record.WasteTypes) == 0 {
				continue
			}
			bins = append(bins, record.WasteTypes[0])
		}

		events = append(events, CollectionEvent{
			Date:      date,
			Bins:      bins,
			Cancelled: cancelled,
		})
	}

	slices.SortFunc(events, func(a, b CollectionEvent) int {
		return a.Date.Compare(b.Date)
	})

	if len(events) == 0 {
		return FetchResult{Events: events}
	}

	next := events[0]
	daysUntil := daysBetween(today, next.Date)

	var status string
	switch daysUntil {
	case 0:
		status = "Today"
	case 1:
		status = "Tomorrow"
	default:
		status = fmt.Sprintf("In %d days", daysUntil)
	}

	nextByBin := map[string]time.Time{}
	for _, event := range events {
		for _, bin := range event.Bins {
			code := CanonicalCode(bin)
			_, seen := nextByBin[code]
			if !seen {
				nextByBin[code] = event.Date
			}
		}
	}

	return FetchResult{
		Events: events,
		Summary: &CollectionSummary{
			NextCollectionDate:  next.Date,
			BinTypes:            strings.Join(next.Bins, ", "),
			DaysUntilCollection: daysUntil,
			CollectionStatus:    status,
			ServiceDisruption:   next.Cancelled,
			NextByBin:           nextByBin,
		},
	}
}
