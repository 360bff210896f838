package greyhoundd

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"greyhound-backend/lib/schedule"
	scraper "greyhound-backend/lib/scrapers/greyhound"
	"greyhound-backend/lib/timezone"
	"greyhound-backend/services/keychain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Namespace is the keychain namespace holding portal credentials.
const Namespace = "greyhound"

// The portal only changes a handful of times per month, polling much
// faster than this just burns sessions.
const DefaultRefreshInterval = time.Hour * 3

var ErrNoCredential = errors.New("no credential stored for account")

type Options struct {
	Keychain keychain.Service
	// overrides the production portal url, used in tests
	BaseUrl string
	// defaults to DefaultRefreshInterval
	RefreshInterval time.Duration
	// reminder emails are disabled when nil
	Notify *NotifyOptions
}

// Snapshot is the last successful fetch for one account. It survives
// failed refreshes, consumers keep serving stale-but-real data while
// the portal misbehaves.
type Snapshot struct {
	Result    schedule.FetchResult
	FetchedAt time.Time
}

// account serializes portal access: the portal session is stateful and
// a single account must never run two fetches at once.
type account struct {
	mu     sync.Mutex
	client *scraper.Client
}

type Service struct {
	keychain keychain.Service
	options  Options

	fetchCount metric.Int64Counter

	mu        sync.RWMutex
	accounts  map[string]*account
	snapshots map[string]Snapshot
	// id -> collection date already reminded about
	reminded map[string]string
}

func NewService(options Options) *Service {
	if options.RefreshInterval == 0 {
		options.RefreshInterval = DefaultRefreshInterval
	}

	fetchCount, err := meter.Int64Counter("greyhound.fetch.count")
	if err != nil {
		slog.Warn("failed to create fetch counter", "err", err)
	}

	return &Service{
		keychain:   options.Keychain,
		options:    options,
		fetchCount: fetchCount,
		accounts:   map[string]*account{},
		snapshots:  map[string]Snapshot{},
		reminded:   map[string]string{},
	}
}

// StartDaemons launches the background refresh loop and, when
// configured, the reminder loop. They stop when ctx is cancelled.
func (s *Service) StartDaemons(ctx context.Context) {
	go s.refreshDaemon(ctx)
	if s.options.Notify != nil {
		go s.reminderDaemon(ctx)
	}
}

func (s *Service) account(ctx context.Context, id string) (*account, error) {
	s.mu.RLock()
	acct, ok := s.accounts[id]
	s.mu.RUnlock()
	if ok {
		return acct, nil
	}

	cred, err := s.keychain.GetCredential(ctx, Namespace, id)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNoCredential
	}

	client, err := scraper.NewClient(scraper.ClientOptions{
		BaseUrl:       s.options.BaseUrl,
		AccountNumber: cred.AccountNumber,
		Pin:           cred.Pin,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another fetch may have raced us here, keep its client
	acct, ok = s.accounts[id]
	if ok {
		return acct, nil
	}
	acct = &account{client: client}
	s.accounts[id] = acct
	return acct, nil
}

func (s *Service) recordFetch(ctx context.Context, outcome string) {
	if s.fetchCount == nil {
		return
	}
	s.fetchCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// Fetch scrapes the portal for one account and replaces its snapshot
// wholesale. On failure the previous snapshot stays in place and the
// error's Category tells the caller whether retrying can help.
func (s *Service) Fetch(ctx context.Context, id string) (schedule.FetchResult, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	acct, err := s.account(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve account")
		s.recordFetch(ctx, "no_account")
		return schedule.FetchResult{}, err
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	days, err := acct.client.FetchRawCollections(ctx)
	if err != nil {
		category := Classify(err)
		if category == CategoryAuthFailed {
			// the stored credentials or session are no good, make the
			// next attempt start from a clean login
			acct.client.Invalidate()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, category.String())
		s.recordFetch(ctx, category.String())
		return schedule.FetchResult{}, err
	}

	result := schedule.Normalize(days, timezone.Now())

	s.mu.Lock()
	s.snapshots[id] = Snapshot{
		Result:    result,
		FetchedAt: timezone.Now(),
	}
	s.mu.Unlock()

	s.recordFetch(ctx, "ok")
	return result, nil
}

// SetCredential verifies the supplied credentials with a live portal
// login and stores them only when it succeeds, so a typo never makes
// it into the keychain. Any cached session built from the account's
// previous credentials is discarded.
func (s *Service) SetCredential(ctx context.Context, id string, cred keychain.Credential) error {
	ctx, span := tracer.Start(ctx, "SetCredential")
	defer span.End()

	span.SetAttributes(attribute.String("id", id))

	client, err := scraper.NewClient(scraper.ClientOptions{
		BaseUrl:       s.options.BaseUrl,
		AccountNumber: cred.AccountNumber,
		Pin:           cred.Pin,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct client")
		return err
	}
	err = client.Login(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "test login failed")
		return err
	}

	err = s.keychain.SetCredential(ctx, Namespace, id, cred)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store credential")
		return err
	}

	s.mu.Lock()
	delete(s.accounts, id)
	s.mu.Unlock()
	return nil
}

// Snapshot returns the last successful fetch for the account, false
// when no fetch has succeeded yet.
func (s *Service) Snapshot(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[id]
	return snapshot, ok
}

func (s *Service) refreshAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "refreshAll")
	defer span.End()

	ids, err := s.keychain.ListIds(ctx, Namespace)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list accounts")
		return err
	}

	// in serial, one portal session at a time is gentle enough
	for _, id := range ids {
		_, err := s.Fetch(ctx, id)
		if err != nil {
			slog.WarnContext(
				ctx, "failed to refresh account",
				"id", id,
				"category", Classify(err).String(),
				"err", err,
			)
		}
	}
	return nil
}

func (s *Service) refreshDaemon(ctx context.Context) {
	slog.InfoContext(
		ctx, "start daemon",
		"task", "refresh collection schedules",
		"interval", s.options.RefreshInterval,
	)

	err := s.refreshAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "initial refresh", "err", err)
	}

	ticker := time.NewTicker(s.options.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := s.refreshAll(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "refresh collection schedules", "err", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
