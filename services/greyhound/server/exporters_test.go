package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"greyhound-backend/lib/schedule"
	"greyhound-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func testEvents() []schedule.CollectionEvent {
	return []schedule.CollectionEvent{
		{
			Date: time.Date(2024, 6, 1, 0, 0, 0, 0, timezone.Location),
			Bins: []string{"GREEN"},
		},
		{
			Date: time.Date(2024, 6, 8, 0, 0, 0, 0, timezone.Location),
			Bins: []string{"BROWN", "BLACK"},
		},
	}
}

func TestWriteICS(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteICS(rec, "home", testEvents())

	require.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	require.Contains(t, body, "UID:2024-06-01-GREEN-home@greyhound-backend")
	require.Contains(t, body, "DTSTART;VALUE=DATE:20240601")
	require.Contains(t, body, "DTEND;VALUE=DATE:20240602")
	require.Contains(t, body, "SUMMARY:GREEN bin collection")
	// one event per bin on shared days
	require.Equal(t, 3, strings.Count(body, "BEGIN:VEVENT"))
	require.Contains(t, body, "END:VCALENDAR")
}

func TestWriteICSCancelled(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteICS(rec, "home", []schedule.CollectionEvent{
		{
			Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, timezone.Location),
			Bins:      []string{"BLACK"},
			Cancelled: true,
		},
	})
	require.Contains(t, rec.Body.String(), "STATUS:CANCELLED")
}

func TestWriteSubscriptionICS(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSubscriptionICS(rec, "home", testEvents())

	require.Empty(t, rec.Header().Get("Content-Disposition"))

	body := rec.Body.String()
	require.Contains(t, body, "METHOD:PUBLISH")
	require.Contains(t, body, "X-PUBLISHED-TTL:PT3H")
}

func TestWriteCSV(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCSV(rec, "home", testEvents())

	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Equal(t, []string{
		"date,bin,description",
		"2024-06-01,GREEN,Recycle waste",
		"2024-06-08,BLACK,General waste",
		"2024-06-08,BROWN,Organic waste",
	}, lines)
}
