package keychain

import (
	"context"
	"database/sql"
	"errors"

	"greyhound-backend/lib/timezone"
	"greyhound-backend/services/keychain/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/keychain")

const feedTokenLength = 48

// Credential is an account number and PIN pair for one portal account.
type Credential struct {
	AccountNumber string
	Pin           string
}

// FeedOwner identifies which stored credential a feed token belongs to.
type FeedOwner struct {
	Namespace string
	Id        string
}

// Service stores portal credentials and the opaque tokens that grant
// unauthenticated calendar-feed access. Secrets live in sqlite, not in
// config files, so rotating a PIN never needs a redeploy.
type Service struct {
	db  *sql.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		db:  database,
		qry: db.New(database),
	}
}

func (s Service) SetCredential(ctx context.Context, namespace, id string, key Credential) error {
	ctx, span := tracer.Start(ctx, "SetCredential")
	defer span.End()

	span.SetAttributes(
		attribute.String("namespace", namespace),
		attribute.String("id", id),
	)

	err := s.qry.CreateCredential(ctx, db.CreateCredentialParams{
		Namespace:     namespace,
		ID:            id,
		AccountNumber: key.AccountNumber,
		Pin:           key.Pin,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// GetCredential returns nil without an error when nothing is stored
// under the given namespace and id.
func (s Service) GetCredential(ctx context.Context, namespace, id string) (*Credential, error) {
	ctx, span := tracer.Start(ctx, "GetCredential")
	defer span.End()

	span.SetAttributes(
		attribute.String("namespace", namespace),
		attribute.String("id", id),
	)

	row, err := s.qry.GetCredential(ctx, db.GetCredentialParams{
		Namespace: namespace,
		ID:        id,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &Credential{
		AccountNumber: row.AccountNumber,
		Pin:           row.Pin,
	}, nil
}

func (s Service) ListIds(ctx context.Context, namespace string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "ListIds")
	defer span.End()

	ids, err := s.qry.ListCredentialIds(ctx, namespace)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return ids, nil
}

// DeleteCredential removes the credential along with every feed token
// minted for it. Tokens must not outlive the account they expose.
func (s Service) DeleteCredential(ctx context.Context, namespace, id string) error {
	ctx, span := tracer.Start(ctx, "DeleteCredential")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	err = txqry.DeleteCredential(ctx, db.DeleteCredentialParams{
		Namespace: namespace,
		ID:        id,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	err = txqry.DeleteFeedTokensFor(ctx, db.DeleteFeedTokensForParams{
		Namespace: namespace,
		ID:        id,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// CreateFeedToken mints a new opaque token granting read access to the
// owner's calendar feed. Multiple tokens per owner are fine, one per
// subscribed device.
func (s Service) CreateFeedToken(ctx context.Context, namespace, id string) (string, error) {
	ctx, span := tracer.Start(ctx, "CreateFeedToken")
	defer span.End()

	token, err := random.String(feedTokenLength)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	err = s.qry.CreateFeedToken(ctx, db.CreateFeedTokenParams{
		Token:     token,
		Namespace: namespace,
		ID:        id,
		CreatedAt: timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return token, nil
}

// LookupFeedToken resolves a token to its owner, nil when the token is
// unknown or has been revoked.
func (s Service) LookupFeedToken(ctx context.Context, token string) (*FeedOwner, error) {
	ctx, span := tracer.Start(ctx, "LookupFeedToken")
	defer span.End()

	row, err := s.qry.GetFeedTokenOwner(ctx, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &FeedOwner{
		Namespace: row.Namespace,
		Id:        row.ID,
	}, nil
}

// RevokeFeedTokens invalidates every token minted for the owner.
func (s Service) RevokeFeedTokens(ctx context.Context, namespace, id string) error {
	ctx, span := tracer.Start(ctx, "RevokeFeedTokens")
	defer span.End()

	err := s.qry.DeleteFeedTokensFor(ctx, db.DeleteFeedTokensForParams{
		Namespace: namespace,
		ID:        id,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
