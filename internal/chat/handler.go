// Package chat exposes the dialogue engine over HTTP and WebSocket.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/sujith0466/Smart-Study-Buddy/internal/api"
	"github.com/sujith0466/Smart-Study-Buddy/internal/dialogue"
	"github.com/sujith0466/Smart-Study-Buddy/internal/identity"
	"github.com/sujith0466/Smart-Study-Buddy/internal/middleware"
)

// defaultMaxRequestBodySize caps chat request bodies and WebSocket frames.
const defaultMaxRequestBodySize = 64 << 10

// httpSessionID groups a user's HTTP turns in the conversation log.
const httpSessionID = "http"

// Engine is the dialogue engine as seen by the transport.
type Engine interface {
	HandleTurn(ctx context.Context, userID, raw string) dialogue.Turn
	ResetContext(userID string)
}

// Options tune the chat handler.
type Options struct {
	// RateLimiter, when set, is charged once per HTTP request and per
	// WebSocket message, keyed by user.
	RateLimiter        *middleware.RateLimiter
	MaxRequestBodySize int64
	// OriginPatterns are the WebSocket origins accepted besides same-host.
	OriginPatterns []string
	IsDev          bool
	Logger         *slog.Logger
}

// Handler serves chat endpoints.
type Handler struct {
	engine  Engine
	log     ConversationLogger
	limiter *middleware.RateLimiter
	maxBody int64
	origins []string
	isDev   bool
	logger  *slog.Logger
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
	Intent   string `json:"intent"`
}

type wsInbound struct {
	Message string `json:"message"`
}

type wsOutbound struct {
	Message string `json:"message,omitempty"`
	Intent  string `json:"intent,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewHandler creates a chat handler. A nil conversation logger disables
// conversation logging.
func NewHandler(engine Engine, conversationLogger ConversationLogger, opts Options) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if opts.MaxRequestBodySize <= 0 {
		opts.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Handler{
		engine:  engine,
		log:     conversationLogger,
		limiter: opts.RateLimiter,
		maxBody: opts.MaxRequestBodySize,
		origins: opts.OriginPatterns,
		isDev:   opts.IsDev,
		logger:  opts.Logger,
	}
}

// RegisterRoutes registers chat routes. They expect identity middleware
// upstream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		if h.limiter != nil {
			r.With(h.limiter.Middleware).Post("/", h.HandleChat)
		} else {
			r.Post("/", h.HandleChat)
		}
		r.Delete("/context", h.HandleReset)
	})
	r.Get("/ws/chat", h.HandleWebSocket)
}

// UserKey charges rate limits to the identified user, falling back to the
// client address.
func UserKey(r *http.Request) string {
	if id := identity.UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return middleware.RemoteIP(r)
}

// HandleChat handles POST /api/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn := h.respond(r.Context(), userID, httpSessionID, ChannelHTTP, req.Message, chiMiddleware.GetReqID(r.Context()))
	api.JSON(w, http.StatusOK, ChatResponse{Response: turn.Response, Intent: turn.Intent})
}

// HandleReset handles DELETE /api/chat/context.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.engine.ResetContext(userID)
	h.logger.Info("Dialogue context reset", "user_id", userID)
	api.JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// HandleWebSocket handles GET /ws/chat. Each text frame {"message": ...}
// gets one reply {"message": ..., "intent": ...}.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.origins,
		InsecureSkipVerify: h.isDev,
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()
	ws.SetReadLimit(h.maxBody)

	sessionID := uuid.NewString()
	h.logger.Info("Chat WebSocket connected", "user_id", userID, "session_id", sessionID)
	ctx := r.Context()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				h.logger.Debug("Chat WebSocket closed", "user_id", userID, "session_id", sessionID)
			} else {
				h.logger.Warn("Chat WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(data, &in); err != nil {
			if err := h.writeWS(ctx, ws, wsOutbound{Error: "invalid message"}); err != nil {
				return
			}
			continue
		}

		if h.limiter != nil && !h.limiter.Allow(userID) {
			if err := h.writeWS(ctx, ws, wsOutbound{Error: "rate limit exceeded"}); err != nil {
				return
			}
			continue
		}

		turn := h.respond(ctx, userID, sessionID, ChannelWebSocket, in.Message, "")
		if err := h.writeWS(ctx, ws, wsOutbound{Message: turn.Response, Intent: turn.Intent}); err != nil {
			h.logger.Debug("Chat WebSocket write failed", "error", err, "user_id", userID)
			return
		}
	}
}

func (h *Handler) writeWS(ctx context.Context, ws *websocket.Conn, v wsOutbound) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return wsjson.Write(ctx, ws, v)
}

// respond runs one turn and records both sides of it.
func (h *Handler) respond(ctx context.Context, userID, sessionID, channel, message, requestID string) dialogue.Turn {
	meta := map[string]any{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	h.log.Log(ConversationLogEvent{
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    channel,
		Direction:  "inbound",
		EventType:  "chat_user_message",
		ContentRaw: message,
		Meta:       meta,
	})

	start := time.Now()
	turn := h.engine.HandleTurn(ctx, userID, message)

	h.logger.Info("Chat turn",
		"user_id", userID,
		"channel", channel,
		"intent", turn.Intent,
		"source", turn.Source,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	h.log.Log(ConversationLogEvent{
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    channel,
		Direction:  "outbound",
		EventType:  "chat_assistant_message",
		Intent:     turn.Intent,
		Source:     turn.Source,
		ContentRaw: turn.Response,
		Meta:       meta,
	})
	return turn
}
