package greyhound

import (
	"bytes"
	"context"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"greyhound-backend/lib/restyutil"
	"greyhound-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const DefaultBaseUrl = "https://app.greyhound.ie"

const loginPath = "/"
const calendarPath = "/collection/collection_calendar"

// the portal rejects requests without a browser user agent
const userAgent = "Mozilla/5.0"

// the hidden form field carrying the anti-forgery token
const tokenFieldName = "csrfmiddlewaretoken"

// Client talks to the customer portal. It is not safe for concurrent
// use with a single account, callers must serialize fetches, the
// loggedIn flag has no synchronization on purpose (each configured
// account owns exactly one Client).
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	accountNumber string
	pin           string
	loggedIn      bool
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl when empty
	BaseUrl       string
	AccountNumber string
	Pin           string
}

func NewClient(opts ClientOptions) (*Client, error) {
	rawUrl := opts.BaseUrl
	if rawUrl == "" {
		rawUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(rawUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 10)

	telemetry.InstrumentResty(client, "scrapers/greyhound/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	c := &Client{
		BaseUrl:       baseUrl,
		Http:          client,
		accountNumber: opts.AccountNumber,
		pin:           opts.Pin,
	}
	return c, nil
}

func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// Invalidate resets the session flag so the next fetch logs in again.
// Called internally when the portal serves the login form where the
// calendar should be, callers may also call it after credential changes.
func (c *Client) Invalidate() {
	c.loggedIn = false
}

// Login performs the two-step form login: fetch the login page, pull
// the anti-forgery token out of the hidden form field, then post the
// credentials along with it.
func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return markLoginPhase(classifyTransport(err))
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "login page returned error status")
		return &ApiError{Kind: KindHttpStatus, Status: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page html")
		return &ApiError{Kind: KindUnexpected, Err: err}
	}

	token := doc.Find("input[name=" + tokenFieldName + "]").AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, "failed to find anti-forgery token")
		return &ApiError{Kind: KindTokenNotFound}
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", c.BaseUrl.String()).
		SetFormData(map[string]string{
			tokenFieldName: token,
			"customerNo":   c.accountNumber,
			"pinCode":      c.pin,
		}).
		Post(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return markLoginPhase(classifyTransport(err))
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "login post returned error status")
		return &ApiError{Kind: KindHttpStatus, Status: res.StatusCode()}
	}

	// the portal answers a good login with the dashboard, there is no
	// structured success signal to check instead
	body := res.String()
	if !strings.Contains(body, "Dashboard") && !strings.Contains(body, "Logout") {
		span.SetStatus(codes.Error, "no success marker in login response")
		return &ApiError{Kind: KindInvalidCredentials}
	}

	c.loggedIn = true
	return nil
}
