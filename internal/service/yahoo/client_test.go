package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "CoinCast/pkg/http"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, apphttp.NewClient(apphttp.WithTimeout(5*time.Second))).(*Client)
}

func TestDailyCloses(t *testing.T) {
	day := int64(86400)
	base := time.Date(2026, 8, 24, 13, 30, 0, 0, time.UTC).Unix()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^IXIC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")

		fmt.Fprintf(w, `{"chart":{"result":[{
			"timestamp":[%d,%d,%d],
			"indicators":{"quote":[{"close":[17000.5,null,17100.25]}]}
		}],"error":null}}`, base, base+day, base+2*day)
	})

	closes, err := c.DailyCloses(context.Background(), "^IXIC",
		time.Unix(base, 0), time.Unix(base+3*day, 0))
	require.NoError(t, err)

	// The null close (market holiday) is skipped.
	require.Len(t, closes, 2)
	assert.Equal(t, time.Unix(base, 0).UTC(), closes[0].Date)
	assert.Equal(t, 17000.5, closes[0].Close)
	assert.Equal(t, time.Unix(base+2*day, 0).UTC(), closes[1].Date)
	assert.Equal(t, 17100.25, closes[1].Close)
}

func TestDailyClosesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	})

	_, err := c.DailyCloses(context.Background(), "BOGUS", time.Now().AddDate(0, 0, -7), time.Now())
	assert.ErrorContains(t, err, "Not Found")
}

func TestDailyClosesEmptyResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	_, err := c.DailyCloses(context.Background(), "^IXIC", time.Now().AddDate(0, 0, -7), time.Now())
	assert.ErrorContains(t, err, "empty result")
}
