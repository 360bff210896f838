package server

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"greyhound-backend/lib/schedule"
)

const icsProductID = "-//greyhound-backend//collection-calendar//EN"
const icsTimezone = "Europe/Dublin"

func writeICSEvents(w http.ResponseWriter, id string, events []schedule.CollectionEvent) {
	stamp := time.Now().UTC().Format("20060102T150405Z")

	for _, event := range events {
		date := event.Date.Format("2006-01-02")
		for _, bin := range schedule.SortBinsForDisplay(event.Bins) {
			// the uid must be stable across refreshes so calendar apps
			// update events instead of duplicating them
			uid := fmt.Sprintf("%s-%s-%s@greyhound-backend", date, bin, id)

			fmt.Fprintln(w, "BEGIN:VEVENT")
			fmt.Fprintf(w, "UID:%s\n", uid)
			fmt.Fprintf(w, "DTSTAMP:%s\n", stamp)
			fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", event.Date.Format("20060102"))
			fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", event.Date.AddDate(0, 0, 1).Format("20060102"))
			fmt.Fprintf(w, "SUMMARY:%s bin collection\n", bin)
			fmt.Fprintf(w, "DESCRIPTION:%s\n", schedule.Describe(bin))
			if event.Cancelled {
				fmt.Fprintln(w, "STATUS:CANCELLED")
			}
			fmt.Fprintln(w, "END:VEVENT")
		}
	}
}

// WriteICS renders the events as a downloadable iCalendar file.
func WriteICS(w http.ResponseWriter, id string, events []schedule.CollectionEvent) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=collections_%s.ics", id))

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", icsProductID)
	fmt.Fprintf(w, "X-WR-CALNAME:Bin collections (%s)\n", id)
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", icsTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")

	writeICSEvents(w, id, events)

	fmt.Fprintln(w, "END:VCALENDAR")
}

// WriteSubscriptionICS renders an iCalendar feed for subscriptions:
// inline content, METHOD:PUBLISH and a refresh hint instead of an
// attachment header.
func WriteSubscriptionICS(w http.ResponseWriter, id string, events []schedule.CollectionEvent) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", icsProductID)
	fmt.Fprintln(w, "METHOD:PUBLISH")
	fmt.Fprintf(w, "X-WR-CALNAME:Bin collections (%s)\n", id)
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", icsTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")
	fmt.Fprintln(w, "X-PUBLISHED-TTL:PT3H")

	writeICSEvents(w, id, events)

	fmt.Fprintln(w, "END:VCALENDAR")
}

// WriteCSV renders the events as a csv download, one row per bin.
func WriteCSV(w http.ResponseWriter, id string, events []schedule.CollectionEvent) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=collections_%s.csv", id))

	out := csv.NewWriter(w)
	defer out.Flush()

	err := out.Write([]string{"date", "bin", "description"})
	if err != nil {
		slog.Warn("failed to write csv export", "err", err)
		return
	}
	for _, event := range events {
		for _, bin := range schedule.SortBinsForDisplay(event.Bins) {
			err := out.Write([]string{
				event.Date.Format("2006-01-02"),
				bin,
				schedule.Describe(bin),
			})
			if err != nil {
				slog.Warn("failed to write csv export", "err", err)
				return
			}
		}
	}
}
