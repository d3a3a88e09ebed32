package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"skillswipe/internal/api/middleware"
	"skillswipe/internal/auth"
	"skillswipe/internal/worker"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

var (
	errUnknownEvent    = errors.New("unknown notification type")
	errIncompleteEvent = errors.New("notification is missing match fields")
)

// NotificationSubscriber 订阅某个用户的匹配通知，返回原始 payload 流与关闭函数。
type NotificationSubscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan string, func() error)
}

// RedisNotifications 通过 Redis Pub/Sub 订阅 worker 发布的通知。
type RedisNotifications struct {
	Client *redis.Client
}

func (r RedisNotifications) Subscribe(ctx context.Context, userID string) (<-chan string, func() error) {
	pubsub := r.Client.Subscribe(ctx, worker.NotifyChannel(userID))
	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close
}

// WsHandler 鉴权 WebSocket 连接，并把该用户的匹配事件推送给客户端。
type WsHandler struct {
	notifications NotificationSubscriber
	tokens        middleware.TokenValidator
	logger        *slog.Logger
	upgrader      websocket.Upgrader
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时只接受同源请求。
func NewWsHandler(notifications NotificationSubscriber, tokens middleware.TokenValidator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	return &WsHandler{
		notifications: notifications,
		tokens:        tokens,
		logger:        logger,
		upgrader:      websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		for _, o := range allowed {
			if origin == o {
				return true
			}
		}
		return false
	}
}

// wsAuthMessage 是客户端连接后发送的第一条消息。
type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// HandleConnection 升级连接，等待 auth 消息，然后转发匹配事件直到任一端断开。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))
	userID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.String("user_id", userID))
	log.Info("websocket authenticated")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go discardClientMessages(conn, cancel)

	events, unsubscribe := h.notifications.Subscribe(ctx, userID)
	defer func() {
		if err := unsubscribe(); err != nil {
			log.Warn("unsubscribe notifications failed", slog.Any("error", err))
		}
	}()

	if err := forwardMatchEvents(ctx, conn, events, log); err != nil {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// authenticate 读取第一条消息并校验访问令牌，失败时以 policy violation 关闭连接。
func (h *WsHandler) authenticate(conn *websocket.Conn) (string, error) {
	reject := func(reason string, err error) (string, error) {
		deadline := time.Now().Add(wsWriteTimeout)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
		return "", err
	}

	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	var msg wsAuthMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return reject("invalid auth payload", fmt.Errorf("read auth message: %w", err))
	}
	_ = conn.SetReadDeadline(time.Time{})

	if msg.Type != "auth" || msg.Token == "" {
		return reject("auth required", errors.New("first message must be an auth message"))
	}
	claims, err := h.tokens.ValidateToken(msg.Token)
	if err != nil {
		return reject("unauthorized", fmt.Errorf("validate token: %w", err))
	}
	if claims.TokenType != auth.TokenTypeAccess || claims.UserID == "" {
		return reject("access token required", fmt.Errorf("invalid token type %q", claims.TokenType))
	}
	if claims.MustChangePassword {
		return reject("password change required", errors.New("password change required"))
	}
	return claims.UserID, nil
}

// discardClientMessages 认证后客户端消息无意义，只用读循环检测断开。
func discardClientMessages(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// forwardMatchEvents 把通知解码为匹配事件后写给客户端，无法识别的通知记录后丢弃。
func forwardMatchEvents(ctx context.Context, conn *websocket.Conn, events <-chan string, log *slog.Logger) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-events:
			if !ok {
				return errors.New("notification stream closed")
			}
			event, err := decodeMatchEvent(payload)
			if err != nil {
				log.Warn("dropping notification", slog.Any("error", err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				return fmt.Errorf("write match event: %w", err)
			}
			log.Info("match event delivered",
				slog.String("match_id", event.MatchID),
				slog.String("correlation_id", event.CorrelationID),
			)
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func decodeMatchEvent(payload string) (worker.MatchNotifyMessage, error) {
	var event worker.MatchNotifyMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return event, fmt.Errorf("decode notification: %w", err)
	}
	if event.Type != worker.MessageTypeMatchCreated {
		return event, fmt.Errorf("%w: %q", errUnknownEvent, event.Type)
	}
	if event.MatchID == "" || event.OtherUserID == "" {
		return event, errIncompleteEvent
	}
	return event, nil
}
