package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"CoinCast/internal/domain/models"
	drepo "CoinCast/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements a PriceStream backed by the Binance kline websocket.
type Stream struct {
	websocketURL   string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	subID     atomic.Int64
}

// NewStream creates a Binance kline PriceStream.
func NewStream(websocketURL, symbol string, reconnectDelay, pingInterval time.Duration) drepo.PriceStream {
	return &Stream{
		websocketURL:   websocketURL,
		symbol:         symbol,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the websocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Subscribe subscribes to the hourly kline stream for the configured symbol.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	s.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("binance stream not connected")
	}
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{strings.ToLower(s.symbol) + "@kline_" + klineInterval},
		"id":     s.subID.Add(1),
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.symbol, err)
	}
	return nil
}

type wsKline struct {
	OpenTime int64  `json:"t"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Final    bool   `json:"x"`
}

type wsMessage struct {
	Event string  `json:"e"`
	Kline wsKline `json:"k"`
}

// Read streams live kline events and errors for the current connection.
// Non-kline frames (subscribe acks, pings) are skipped; a malformed frame
// is skipped, not fatal. Both channels close when the read loop exits, and
// the stream marks itself disconnected, so a new connection needs a fresh
// Read after Reconnect.
func (s *Stream) Read(ctx context.Context) (<-chan *models.LiveCandle, <-chan error) {
	candles := make(chan *models.LiveCandle, 256)
	errs := make(chan error, 1)
	done := make(chan struct{})

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	// ping loop, tied to this connection's read loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(candles)
		defer close(errs)
		defer close(done)
		if conn == nil {
			s.setConnected(false)
			errs <- fmt.Errorf("binance stream conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					s.setConnected(false)
					errs <- fmt.Errorf("binance stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					continue
				}
				if m.Event != "kline" {
					continue
				}
				candle, err := parseWSKline(m.Kline)
				if err != nil {
					continue
				}
				select {
				case candles <- candle:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return candles, errs
}

func parseWSKline(k wsKline) (*models.LiveCandle, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return nil, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return nil, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return nil, err
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return nil, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return nil, err
	}
	return &models.LiveCandle{
		Candle: models.Candle{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closeP,
			Volume:   volume,
		},
		Final: k.Final,
	}, nil
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	s.connected = false
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports whether the read loop still has a live connection.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Stream) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}
