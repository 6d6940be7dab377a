package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brunobiangulo/slidedeck"
)

const (
	wsUploadTimeout = 2 * time.Minute
	wsWriteTimeout  = 10 * time.Second
)

// wsFrame is one server-to-client message on /ws/parse.
type wsFrame struct {
	Type     string              `json:"type"` // progress | result | error
	Progress *slidedeck.Progress `json:"progress,omitempty"`
	Result   *slidedeck.Result   `json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
	Status   int                 `json:"status,omitempty"`
}

// GET /ws/parse?format=pptx&extract_images=false
// The client sends the archive as a single binary message. The server
// streams progress frames and finishes with one result or error frame.
// Closing the socket early cancels the parse.
func (s *server) handleParseStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	opts, err := s.parseOptions(r.URL.Query().Get)
	if err != nil {
		s.sendFrame(conn, wsFrame{Type: "error", Error: err.Error(), Status: http.StatusBadRequest})
		return
	}
	if format := r.URL.Query().Get("format"); format != "" {
		opts = append(opts, slidedeck.WithFormat(format))
	}

	if s.opts.MaxUploadBytes > 0 {
		conn.SetReadLimit(s.opts.MaxUploadBytes)
	}
	conn.SetReadDeadline(time.Now().Add(wsUploadTimeout))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			s.log.Warn("websocket upload too large", "limit", s.opts.MaxUploadBytes)
		} else {
			s.log.Warn("reading websocket upload", "error", err)
		}
		return
	}
	if mt != websocket.BinaryMessage {
		s.sendFrame(conn, wsFrame{Type: "error", Error: "expected the presentation as a binary message", Status: http.StatusBadRequest})
		return
	}
	conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
	defer cancel()

	// The client has nothing more to send; any read result means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	opts = append(opts, slidedeck.WithProgress(func(p slidedeck.Progress) {
		s.sendFrame(conn, wsFrame{Type: "progress", Progress: &p})
	}))

	res, err := s.engine.Parse(ctx, data, opts...)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			s.log.Error("websocket parse error", "error", err)
			msg = "parse failed"
		}
		s.sendFrame(conn, wsFrame{Type: "error", Error: msg, Status: status})
		return
	}

	s.sendFrame(conn, wsFrame{Type: "result", Result: res})
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(wsWriteTimeout))
}

// sendFrame writes one JSON frame. Progress callbacks never overlap and the
// final frame is written after the parse returns, so writes are serialized.
func (s *server) sendFrame(conn *websocket.Conn, f wsFrame) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(f); err != nil {
		s.log.Debug("websocket write failed", "type", f.Type, "error", err)
	}
}
