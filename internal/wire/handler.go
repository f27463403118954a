package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/matthewbaird/vegalite/internal/compile"
	"github.com/matthewbaird/vegalite/internal/session"
	"github.com/matthewbaird/vegalite/internal/stats"
)

// Handler manages WebSocket connections for compile sessions.
type Handler struct {
	sessions *session.Manager
	stats    stats.Provider
	logger   *log.Logger
}

// NewHandler creates a WebSocket handler. p may be nil.
func NewHandler(sessions *session.Manager, p stats.Provider, logger *log.Logger) *Handler {
	return &Handler{sessions: sessions, stats: p, logger: logger}
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("wire: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	sess := h.sessions.Create()
	defer h.sessions.Remove(sess.ID)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	expire := sync.OnceFunc(func() {
		log.Printf("wire: session %s expired", sess.ID)
		conn.Close(websocket.StatusPolicyViolation, "session expired")
	})
	go func() {
		select {
		case <-ctx.Done():
		case <-sess.Done():
			if ctx.Err() == nil {
				expire()
			}
		}
	}()

	h.send(ctx, conn, ServerMessage{
		Type: TypeSession,
		Data: SessionData{SessionID: sess.ID},
	})

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("wire: session %s closed: %v", sess.ID, websocket.CloseStatus(err))
			}
			return
		}
		if h.sessions.Get(sess.ID) == nil {
			expire()
			return
		}
		sess.Touch()

		switch msg.Type {
		case TypeCompile:
			h.handleCompile(ctx, conn, sess, msg)
		case TypeValidate:
			h.handleValidate(ctx, conn, msg)
		case TypeConfigure:
			h.handleConfigure(ctx, conn, sess, msg)
		case TypePing:
			h.send(ctx, conn, ServerMessage{Type: TypePong, RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, ErrorData{Code: "UNKNOWN_TYPE", Message: fmt.Sprintf("unknown message type: %s", msg.Type)})
		}
	}
}

func (h *Handler) handleCompile(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	start := time.Now()
	doc, ok := h.specData(ctx, conn, msg)
	if !ok {
		return
	}
	res, err := compile.CompileJSON(doc, compile.Options{
		Stats:  h.stats,
		Config: sess.RecordCompile(),
		Logger: h.logger,
	})
	if err != nil {
		h.sendError(ctx, conn, msg.ID, h.errorData(err))
		return
	}
	h.send(ctx, conn, ServerMessage{
		Type:      TypeResult,
		RequestID: msg.ID,
		Data: ResultData{
			Spec:     res.Spec,
			Warnings: res.Warnings,
			Elapsed:  time.Since(start).String(),
		},
	})
}

func (h *Handler) handleValidate(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	doc, ok := h.specData(ctx, conn, msg)
	if !ok {
		return
	}
	s, err := compile.ValidateJSON(doc)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, h.errorData(err))
		return
	}
	kind, _ := s.Kind()
	h.send(ctx, conn, ServerMessage{Type: TypeValid, RequestID: msg.ID, Data: ValidData{Kind: kind.String()}})
}

func (h *Handler) handleConfigure(ctx context.Context, conn *websocket.Conn, sess *session.Session, msg ClientMessage) {
	var data ConfigureData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: "INVALID_DATA", Message: "invalid configure data"})
		return
	}
	if err := sess.Configure(data.Config); err != nil {
		h.sendError(ctx, conn, msg.ID, h.errorData(err))
		return
	}
	h.send(ctx, conn, ServerMessage{Type: TypeSession, RequestID: msg.ID, Data: SessionData{SessionID: sess.ID}})
}

func (h *Handler) specData(ctx context.Context, conn *websocket.Conn, msg ClientMessage) (json.RawMessage, bool) {
	var data SpecData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: "INVALID_DATA", Message: "invalid " + msg.Type + " data"})
		return nil, false
	}
	if len(data.Spec) == 0 {
		h.sendError(ctx, conn, msg.ID, ErrorData{Code: "EMPTY_SPEC", Message: "message carries no spec"})
		return nil, false
	}
	return data.Spec, true
}

// errorData classifies a compile error for the client. Internal failures
// are logged and reported without detail.
func (h *Handler) errorData(err error) ErrorData {
	code, ve := compile.Classify(err)
	switch {
	case ve != nil:
		return ErrorData{Code: string(code), Message: err.Error(), Path: ve.Path, Suggestion: ve.Suggestion}
	case code == compile.CodeInternal:
		log.Printf("wire: compile error: %v", err)
		return ErrorData{Code: string(code), Message: "internal error"}
	}
	return ErrorData{Code: string(code), Message: err.Error()}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("wire: write error: %v", err)
	}
}

func (h *Handler) sendError(ctx context.Context, conn *websocket.Conn, requestID string, data ErrorData) {
	h.send(ctx, conn, ServerMessage{
		Type:      TypeError,
		RequestID: requestID,
		Data:      data,
	})
}
