package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// klineServer upgrades one connection, consumes the subscribe frame, writes
// the given frames and closes the socket.
func klineServer(t *testing.T, frames [][]byte) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
		for _, f := range frames {
			_ = conn.WriteMessage(websocket.TextMessage, f)
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamReadsKlinesAndMarksDisconnectedOnDeath(t *testing.T) {
	frames := [][]byte{
		[]byte(`{"result":null,"id":1}`),
		[]byte(`{"e":"kline","k":{"t":1788177600000,"o":"50000","h":"50300","l":"49900","c":"50200.5","v":"12.5","x":true}}`),
	}
	srv := klineServer(t, frames)
	defer srv.Close()

	s := NewStream(wsURL(srv), "BTCUSDT", time.Millisecond, time.Minute)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Subscribe(ctx))
	require.True(t, s.IsConnected())

	candles, errs := s.Read(ctx)

	candle := <-candles
	require.NotNil(t, candle)
	assert.Equal(t, time.UnixMilli(1788177600000).UTC(), candle.OpenTime)
	assert.Equal(t, 50200.5, candle.Close)
	assert.True(t, candle.Final)

	// The server hangs up after the last frame; the read loop dies and the
	// stream must stop reporting itself connected.
	err := <-errs
	require.Error(t, err)
	assert.False(t, s.IsConnected())

	_, open := <-candles
	assert.False(t, open)
}
