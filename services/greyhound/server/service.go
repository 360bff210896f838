package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"greyhound-backend/lib/schedule"
	"greyhound-backend/lib/telemetry"
	"greyhound-backend/lib/timezone"
	greyhoundd "greyhound-backend/services/greyhound"
	"greyhound-backend/services/keychain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("greyhound.services.greyhound.server")

// Service exposes the fetched schedules over plain HTTP: JSON views
// for dashboards and home automation, file exports and a token-guarded
// calendar subscription feed.
type Service struct {
	svc      *greyhoundd.Service
	keychain keychain.Service
}

func NewService(svc *greyhoundd.Service, kc keychain.Service) Service {
	return Service{
		svc:      svc,
		keychain: kc,
	}
}

// Register mounts all routes on mux. The /api/v1 routes are expected
// to sit behind an access-token middleware, /feed is not: subscribing
// calendar apps cannot send headers, the feed token in the url is the
// only guard.
func (s Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/v1/accounts", s.handlePutAccount)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/next", s.handleNext)
	mux.HandleFunc("GET /api/v1/sensors", s.handleSensors)
	mux.HandleFunc("GET /api/v1/export", s.handleExport)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /feed/ics", s.handleFeed)
}

type eventJSON struct {
	Date      string   `json:"date"`
	Bins      []string `json:"bins"`
	Cancelled bool     `json:"cancelled,omitempty"`
}

type summaryJSON struct {
	NextCollectionDate  string            `json:"next_collection_date"`
	BinTypes            string            `json:"bin_types"`
	DaysUntilCollection int               `json:"days_until_collection"`
	CollectionStatus    string            `json:"collection_status"`
	ServiceDisruption   bool              `json:"service_disruption"`
	NextByBin           map[string]string `json:"next_by_bin"`
}

func toEventJSON(events []schedule.CollectionEvent) []eventJSON {
	out := make([]eventJSON, len(events))
	for i, event := range events {
		out[i] = eventJSON{
			Date:      event.Date.Format("2006-01-02"),
			Bins:      event.Bins,
			Cancelled: event.Cancelled,
		}
	}
	return out
}

func toSummaryJSON(summary *schedule.CollectionSummary) *summaryJSON {
	if summary == nil {
		return nil
	}
	nextByBin := make(map[string]string, len(summary.NextByBin))
	for bin, date := range summary.NextByBin {
		nextByBin[bin] = date.Format("2006-01-02")
	}
	return &summaryJSON{
		NextCollectionDate:  summary.NextCollectionDate.Format("2006-01-02"),
		BinTypes:            summary.BinTypes,
		DaysUntilCollection: summary.DaysUntilCollection,
		CollectionStatus:    summary.CollectionStatus,
		ServiceDisruption:   summary.ServiceDisruption,
		NextByBin:           nextByBin,
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

// snapshot resolves the account id from the query and returns its last
// good snapshot, writing the error response itself when there is none.
func (s Service) snapshot(w http.ResponseWriter, r *http.Request) (string, greyhoundd.Snapshot, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing 'id' query parameter", http.StatusBadRequest)
		return "", greyhoundd.Snapshot{}, false
	}
	snapshot, ok := s.svc.Snapshot(id)
	if !ok {
		http.Error(w, "no schedule fetched yet for this account", http.StatusNotFound)
		return "", greyhoundd.Snapshot{}, false
	}
	return id, snapshot, true
}

// parseRange reads the optional start/end query parameters, both
// inclusive dates in 2006-01-02 form.
func parseRange(r *http.Request) (start, end time.Time, err error) {
	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err = time.ParseInLocation("2006-01-02", raw, timezone.Location)
		if err != nil {
			return
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err = time.ParseInLocation("2006-01-02", raw, timezone.Location)
		if err != nil {
			return
		}
	}
	return
}

func filterRange(events []schedule.CollectionEvent, start, end time.Time) []schedule.CollectionEvent {
	var out []schedule.CollectionEvent
	for _, event := range events {
		if !start.IsZero() && event.Date.Before(start) {
			continue
		}
		if !end.IsZero() && event.Date.After(end) {
			continue
		}
		out = append(out, event)
	}
	return out
}

// handlePutAccount registers or replaces an account's portal
// credentials. The service test-drives them with a real login before
// anything is stored, a failed login leaves the keychain untouched.
func (s Service) handlePutAccount(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handlePutAccount")
	defer span.End()

	var req struct {
		Id            string `json:"id"`
		AccountNumber string `json:"account_number"`
		Pin           string `json:"pin"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "request body must be json", http.StatusBadRequest)
		return
	}
	if req.Id == "" || req.AccountNumber == "" || req.Pin == "" {
		http.Error(w, "id, account_number and pin are all required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("id", req.Id))

	err = s.svc.SetCredential(ctx, req.Id, keychain.Credential{
		AccountNumber: req.AccountNumber,
		Pin:           req.Pin,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to register account")

		status := http.StatusBadGateway
		if greyhoundd.Classify(err) == greyhoundd.CategoryAuthFailed {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	start, end, err := parseRange(r)
	if err != nil {
		http.Error(w, "start/end must be dates in the form 2006-01-02", http.StatusBadRequest)
		return
	}
	writeJSON(w, struct {
		Id        string      `json:"id"`
		FetchedAt time.Time   `json:"fetched_at"`
		Events    []eventJSON `json:"events"`
	}{
		Id:        id,
		FetchedAt: snapshot.FetchedAt,
		Events:    toEventJSON(filterRange(snapshot.Result.Events, start, end)),
	})
}

func (s Service) handleNext(w http.ResponseWriter, r *http.Request) {
	_, snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	summary := toSummaryJSON(snapshot.Result.Summary)
	if summary == nil {
		http.Error(w, "no upcoming collections", http.StatusNotFound)
		return
	}
	writeJSON(w, summary)
}

// handleSensors renders one flat object per derived value, shaped for
// home-automation template sensors that want a single scrape target.
func (s Service) handleSensors(w http.ResponseWriter, r *http.Request) {
	_, snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	sensors := map[string]any{
		"fetched_at": snapshot.FetchedAt,
	}
	summary := snapshot.Result.Summary
	if summary != nil {
		sensors["next_collection_date"] = summary.NextCollectionDate.Format("2006-01-02")
		sensors["bin_types"] = summary.BinTypes
		sensors["days_until_collection"] = summary.DaysUntilCollection
		sensors["collection_status"] = summary.CollectionStatus
		sensors["service_disruption"] = summary.ServiceDisruption
		for bin, date := range summary.NextByBin {
			sensors["next_"+bin] = date.Format("2006-01-02")
		}
	}
	writeJSON(w, sensors)
}

func (s Service) handleExport(w http.ResponseWriter, r *http.Request) {
	id, snapshot, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	switch r.URL.Query().Get("format") {
	case "ics":
		WriteICS(w, id, snapshot.Result.Events)
	case "csv":
		WriteCSV(w, id, snapshot.Result.Events)
	case "json":
		w.Header().Set("Content-Disposition", "attachment; filename=collections_"+id+".json")
		writeJSON(w, struct {
			Id      string       `json:"id"`
			Events  []eventJSON  `json:"events"`
			Summary *summaryJSON `json:"summary"`
		}{
			Id:      id,
			Events:  toEventJSON(snapshot.Result.Events),
			Summary: toSummaryJSON(snapshot.Result.Summary),
		})
	default:
		http.Error(w, "format must be one of: ics, csv, json", http.StatusBadRequest)
	}
}

func (s Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleRefresh")
	defer span.End()

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing 'id' query parameter", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("id", id))

	_, err := s.svc.Fetch(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")

		status := http.StatusBadGateway
		if greyhoundd.Classify(err) == greyhoundd.CategoryAuthFailed {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s Service) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleSubscribe")
	defer span.End()

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing 'id' query parameter", http.StatusBadRequest)
		return
	}

	cred, err := s.keychain.GetCredential(ctx, greyhoundd.Namespace, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up account")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cred == nil {
		http.Error(w, "unknown account", http.StatusNotFound)
		return
	}

	token, err := s.keychain.CreateFeedToken(ctx, greyhoundd.Namespace, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mint feed token")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"token": token,
		"url":   "/feed/ics?token=" + token,
	})
}

func (s Service) handleFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "handleFeed")
	defer span.End()

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing 'token' query parameter", http.StatusBadRequest)
		return
	}

	owner, err := s.keychain.LookupFeedToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up feed token")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// unknown tokens and empty snapshots look identical on purpose,
	// the feed must not confirm whether a token exists
	if owner == nil || owner.Namespace != greyhoundd.Namespace {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	snapshot, ok := s.svc.Snapshot(owner.Id)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	WriteSubscriptionICS(w, owner.Id, snapshot.Result.Events)
}
