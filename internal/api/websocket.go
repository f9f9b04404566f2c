package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"backtest-lab/internal/backtest"
	"backtest-lab/internal/domain"
)

const wsWriteTimeout = 10 * time.Second

// Websocket message types
const (
	MessageTrade  = "trade"
	MessageResult = "result"
	MessageError  = "error"
)

// StreamMessage is one message on /ws/backtest.
type StreamMessage struct {
	Type    string      `json:"type"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWSBacktest streams a backtest: one trade message per ledger entry,
// then the result, then a normal close. Input is validated before upgrade
// so bad requests get a plain 400.
func (s *Server) handleWSBacktest(w http.ResponseWriter, r *http.Request) {
	req, err := queryRequest(r)
	if err == nil {
		req, err = s.runner.Validate(req)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: inputMessage(err)})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	s.wsSession(1)
	defer s.wsSession(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Read pump: a client close or read error aborts the run.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	stream := &wsStream{conn: conn, cancel: cancel}

	result, err := s.runner.Run(ctx, req, backtest.WithTradeObserver(func(t domain.Trade) {
		stream.send(StreamMessage{Type: MessageTrade, Data: t})
	}))
	s.recordRun(err)

	switch {
	case stream.failed():
		s.logger.Debug().Err(stream.err).Msg("websocket client gone")
		return
	case err != nil:
		if !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Str("symbol", req.Symbol).Msg("streamed backtest failed")
		}
		stream.send(StreamMessage{Type: MessageError, Message: err.Error()})
		stream.close(websocket.CloseInternalServerErr, "backtest failed")
	default:
		stream.send(StreamMessage{Type: MessageResult, Data: result})
		stream.close(websocket.CloseNormalClosure, "")
	}
}

// wsStream serializes writes and remembers the first write error.
type wsStream struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	err    error
}

func (s *wsStream) send(msg StreamMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.err = err
		s.cancel()
	}
}

func (s *wsStream) close(code int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	deadline := time.Now().Add(wsWriteTimeout)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

func (s *wsStream) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err != nil
}
