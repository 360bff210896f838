package greyhoundd

import (
	"errors"
	"testing"

	scraper "greyhound-backend/lib/scrapers/greyhound"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Category
	}{
		{
			name: "invalid credentials",
			err:  &scraper.ApiError{Kind: scraper.KindInvalidCredentials},
			want: CategoryAuthFailed,
		},
		{
			name: "token not found",
			err:  &scraper.ApiError{Kind: scraper.KindTokenNotFound},
			want: CategoryAuthFailed,
		},
		{
			name: "session expired",
			err:  &scraper.ApiError{Kind: scraper.KindSessionExpired},
			want: CategoryAuthFailed,
		},
		{
			name: "marker not found",
			err:  &scraper.ApiError{Kind: scraper.KindMarkerNotFound},
			want: CategoryUpdateFailed,
		},
		{
			name: "http status",
			err:  &scraper.ApiError{Kind: scraper.KindHttpStatus, Status: 503},
			want: CategoryUpdateFailed,
		},
		{
			name: "timeout fetching calendar",
			err:  &scraper.CommunicationError{Kind: scraper.CommTimeout},
			want: CategoryUpdateFailed,
		},
		{
			name: "timeout during login",
			err:  &scraper.CommunicationError{Kind: scraper.CommTimeout, DuringLogin: true},
			want: CategoryAuthFailed,
		},
		{
			name: "connection refused during login",
			err:  &scraper.CommunicationError{Kind: scraper.CommNetwork, DuringLogin: true},
			want: CategoryAuthFailed,
		},
		{
			name: "unknown",
			err:  errors.New("anything else"),
			want: CategoryUpdateFailed,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, Classify(test.err))
		})
	}
}
