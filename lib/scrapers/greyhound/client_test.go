package greyhound

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"greyhound-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const testAccount = "123456"
const testPin = "9999"

const loginForm = `<html><body>
<form method="post" action="/">
<input type="hidden" name="csrfmiddlewaretoken" value="%s">
<input type="text" name="customerNo">
<input type="password" name="pinCode">
</form>
</body></html>`

// fakePortal imitates the customer portal: a form login guarded by an
// anti-forgery token and a calendar page with the embedded payload.
type fakePortal struct {
	token        string
	calendarBody string
	// when true the calendar page serves the login form instead
	dropSession bool
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprintf(w, loginForm, p.token)
			return
		}

		err := r.ParseForm()
		if err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("csrfmiddlewaretoken") != p.token {
			http.Error(w, "csrf failure", http.StatusForbidden)
			return
		}
		if r.PostFormValue("customerNo") != testAccount || r.PostFormValue("pinCode") != testPin {
			fmt.Fprint(w, `<html><body>Account number or PIN incorrect.</body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body><a href="/dashboard">Dashboard</a> <a href="/logout">Logout</a></body></html>`)
	})
	mux.HandleFunc("/collection/collection_calendar", func(w http.ResponseWriter, r *http.Request) {
		if p.dropSession {
			fmt.Fprintf(w, loginForm, p.token)
			return
		}
		fmt.Fprint(w, p.calendarBody)
	})
	return mux
}

func newTestClient(t *testing.T, baseUrl string) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl:       baseUrl,
		AccountNumber: testAccount,
		Pin:           testPin,
	})
	require.NoError(t, err)
	return client
}

func TestLogin(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/greyhound")
	defer cleanup()

	portal := &fakePortal{token: "tok-1", calendarBody: calendarScript}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.False(t, client.LoggedIn())

	err := client.Login(context.Background())
	require.NoError(t, err)
	require.True(t, client.LoggedIn())
}

func TestLoginInvalidCredentials(t *testing.T) {
	portal := &fakePortal{token: "tok-1"}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	client, err := NewClient(ClientOptions{
		BaseUrl:       server.URL,
		AccountNumber: testAccount,
		Pin:           "0000",
	})
	require.NoError(t, err)

	err = client.Login(context.Background())
	require.True(t, IsApiKind(err, KindInvalidCredentials))
	require.False(t, client.LoggedIn())
}

func TestLoginTokenNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><form method="post"></form></body></html>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Login(context.Background())
	require.True(t, IsApiKind(err, KindTokenNotFound))
	require.False(t, client.LoggedIn())
}

func TestLoginHttpStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Login(context.Background())

	var apiErr *ApiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindHttpStatus, apiErr.Kind)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestFetchRawCollections(t *testing.T) {
	portal := &fakePortal{token: "tok-1", calendarBody: calendarScript}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)

	// logs in lazily on first fetch
	days, err := client.FetchRawCollections(context.Background())
	require.NoError(t, err)
	require.True(t, client.LoggedIn())
	require.Len(t, days, 2)
	require.Equal(t, []string{"GREEN"}, days["2024-06-01"][0].WasteTypes)
}

func TestFetchRawCollectionsMarkerNotFound(t *testing.T) {
	portal := &fakePortal{
		token:        "tok-1",
		calendarBody: `<html><body>template changed, no embedded data anymore</body></html>`,
	}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	days, err := client.FetchRawCollections(context.Background())
	require.True(t, IsApiKind(err, KindMarkerNotFound))
	require.Nil(t, days)
}

func TestFetchRawCollectionsSessionExpired(t *testing.T) {
	portal := &fakePortal{token: "tok-1", calendarBody: calendarScript}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.FetchRawCollections(context.Background())
	require.NoError(t, err)

	portal.dropSession = true
	_, err = client.FetchRawCollections(context.Background())
	require.True(t, IsApiKind(err, KindSessionExpired))
	require.False(t, client.LoggedIn())
}

func TestTransportTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()

	err := client.Login(ctx)
	var commErr *CommunicationError
	require.ErrorAs(t, err, &commErr)
	require.Equal(t, CommTimeout, commErr.Kind)
	require.True(t, commErr.DuringLogin)
}

func TestTransportNetworkError(t *testing.T) {
	// port 1 is never listening
	client := newTestClient(t, "http://127.0.0.1:1")

	err := client.Login(context.Background())
	var commErr *CommunicationError
	require.ErrorAs(t, err, &commErr)
	require.Equal(t, CommNetwork, commErr.Kind)
	require.True(t, commErr.DuringLogin)
}

func TestTransportErrorAfterLogin(t *testing.T) {
	portal := &fakePortal{token: "tok-1", calendarBody: calendarScript}
	server := httptest.NewServer(portal.handler())
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.NoError(t, client.Login(context.Background()))

	// an outage while fetching the calendar is an ordinary transient
	// failure, not an authentication problem
	server.Close()
	_, err := client.FetchRawCollections(context.Background())
	var commErr *CommunicationError
	require.ErrorAs(t, err, &commErr)
	require.False(t, commErr.DuringLogin)
}
