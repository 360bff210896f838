package greyhound

import (
	"context"
	"encoding/json"
	"html"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// The calendar page carries its data inside an inline script:
//
//	var data = "...escaped json..."; something.getJSONData(...)
//
// There is no API endpoint behind it. Extraction runs in named stages
// so that when the template drifts, the error says which stage broke:
// "found neither" reads very differently from "found marker but not
// the payload boundary".
const dataMarkerPrefix = `var data = "`
const dataMarkerSuffix = `getJSONData`

// locateMarker isolates the script span between the fixed prefix and
// suffix framing the embedded payload.
func locateMarker(page string) (string, error) {
	start := strings.Index(page, dataMarkerPrefix)
	if start < 0 {
		return "", &ApiError{Kind: KindMarkerNotFound}
	}
	start += len(dataMarkerPrefix)

	stop := strings.Index(page[start:], dataMarkerSuffix)
	if stop < 0 {
		return "", &ApiError{Kind: KindMarkerNotFound}
	}

	return page[start : start+stop], nil
}

// decodeEntities undoes the HTML entity encoding layered over the
// payload. The portal double-encodes: entity-escaped JSON inside a
// JS string inside markup.
func decodeEntities(s string) string {
	return html.UnescapeString(s)
}

// extractJSONSpan isolates the JSON object inside the decoded span.
// The object runs from the first brace to the closing brace that ends
// the enclosing JS string literal.
func extractJSONSpan(s string) (string, error) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", &ApiError{Kind: KindPayloadBoundaryNotFound}
	}
	stop := strings.Index(s[start:], `}"`)
	if stop < 0 {
		return "", &ApiError{Kind: KindPayloadBoundaryNotFound}
	}
	return s[start : start+stop+1], nil
}

// parseCollectionDays parses the isolated span and descends into
// data.collection_days. This is all-or-nothing: a malformed payload
// yields zero entries and one error, never a partial map.
func parseCollectionDays(span string) (map[string][]BinRecord, error) {
	var payload calendarPayload
	err := json.Unmarshal([]byte(span), &payload)
	if err != nil {
		return nil, &ApiError{Kind: KindInvalidCalendarFormat, Err: err}
	}
	if payload.Data.CollectionDays == nil {
		return nil, &ApiError{Kind: KindInvalidCalendarFormat}
	}
	return payload.Data.CollectionDays, nil
}

func looksLikeLoginPage(page string) bool {
	return strings.Contains(page, tokenFieldName)
}

// FetchRawCollections fetches the calendar page and recovers the raw
// date -> bin records mapping. Logs in lazily first if needed, at most
// once, a login failure is not retried within the same call.
func (c *Client) FetchRawCollections(ctx context.Context) (map[string][]BinRecord, error) {
	ctx, span := tracer.Start(ctx, "client:FetchRawCollections")
	defer span.End()

	if !c.loggedIn {
		err := c.Login(ctx)
		if err != nil {
			span.SetStatus(codes.Error, "login before calendar fetch failed")
			return nil, err
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(calendarPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch calendar page")
		return nil, classifyTransport(err)
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "calendar page returned error status")
		return nil, &ApiError{Kind: KindHttpStatus, Status: res.StatusCode()}
	}

	page := res.String()
	if looksLikeLoginPage(page) {
		// bounced back to the login form, the session cookie lapsed
		c.Invalidate()
		span.SetStatus(codes.Error, "calendar request served the login form")
		return nil, &ApiError{Kind: KindSessionExpired}
	}

	raw, err := locateMarker(page)
	if err != nil {
		span.SetStatus(codes.Error, "embedded-data marker not found")
		return nil, err
	}
	span.AddEvent("located embedded-data marker")

	decoded := decodeEntities(raw)

	jsonSpan, err := extractJSONSpan(decoded)
	if err != nil {
		span.SetStatus(codes.Error, "payload boundary not found")
		return nil, err
	}
	span.AddEvent("isolated json span")

	days, err := parseCollectionDays(jsonSpan)
	if err != nil {
		span.SetStatus(codes.Error, "calendar payload did not parse")
		return nil, err
	}

	return days, nil
}
