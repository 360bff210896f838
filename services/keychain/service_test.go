package keychain

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"greyhound-backend/lib/telemetry"
	"greyhound-backend/services/keychain/db"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) (Service, func()) {
	cleanup := telemetry.SetupForTesting("test:services/keychain")

	sqlite, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	_, err = sqlite.Exec(db.Schema)
	if err != nil {
		t.Fatal(err)
	}

	return NewService(sqlite), cleanup
}

func TestService(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	{
		key, err := service.GetCredential(ctx, "greyhound", "unknown-id")
		require.NoError(t, err)
		require.Nil(t, key)
	}

	{
		err := service.SetCredential(ctx, "greyhound", "home", Credential{
			AccountNumber: "123456",
			Pin:           "9999",
		})
		require.NoError(t, err)
	}
	{
		err := service.SetCredential(ctx, "greyhound", "rental", Credential{
			AccountNumber: "654321",
			Pin:           "1111",
		})
		require.NoError(t, err)
	}

	{
		key, err := service.GetCredential(ctx, "greyhound", "home")
		require.NoError(t, err)
		require.Equal(t, "123456", key.AccountNumber)
		require.Equal(t, "9999", key.Pin)
	}
	{
		ids, err := service.ListIds(ctx, "greyhound")
		require.NoError(t, err)
		require.Equal(t, []string{"home", "rental"}, ids)
	}

	// overwriting replaces, never duplicates
	{
		err := service.SetCredential(ctx, "greyhound", "home", Credential{
			AccountNumber: "123456",
			Pin:           "0000",
		})
		require.NoError(t, err)

		key, err := service.GetCredential(ctx, "greyhound", "home")
		require.NoError(t, err)
		require.Equal(t, "0000", key.Pin)

		ids, err := service.ListIds(ctx, "greyhound")
		require.NoError(t, err)
		require.Len(t, ids, 2)
	}
}

func TestFeedTokens(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := service.SetCredential(ctx, "greyhound", "home", Credential{
		AccountNumber: "123456",
		Pin:           "9999",
	})
	require.NoError(t, err)

	first, err := service.CreateFeedToken(ctx, "greyhound", "home")
	require.NoError(t, err)
	second, err := service.CreateFeedToken(ctx, "greyhound", "home")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	owner, err := service.LookupFeedToken(ctx, first)
	require.NoError(t, err)
	require.Equal(t, &FeedOwner{Namespace: "greyhound", Id: "home"}, owner)

	owner, err = service.LookupFeedToken(ctx, "no-such-token")
	require.NoError(t, err)
	require.Nil(t, owner)

	err = service.RevokeFeedTokens(ctx, "greyhound", "home")
	require.NoError(t, err)

	owner, err = service.LookupFeedToken(ctx, second)
	require.NoError(t, err)
	require.Nil(t, owner)
}

func TestDeleteCredentialRevokesTokens(t *testing.T) {
	service, cleanup := setup(t)
	defer cleanup()

	ctx := context.Background()

	err := service.SetCredential(ctx, "greyhound", "home", Credential{
		AccountNumber: "123456",
		Pin:           "9999",
	})
	require.NoError(t, err)

	token, err := service.CreateFeedToken(ctx, "greyhound", "home")
	require.NoError(t, err)

	err = service.DeleteCredential(ctx, "greyhound", "home")
	require.NoError(t, err)

	key, err := service.GetCredential(ctx, "greyhound", "home")
	require.NoError(t, err)
	require.Nil(t, key)

	owner, err := service.LookupFeedToken(ctx, token)
	require.NoError(t, err)
	require.Nil(t, owner)
}
