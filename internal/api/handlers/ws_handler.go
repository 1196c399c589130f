package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/pkg/types"
	log "github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Origins are enforced by CORSMiddleware before the upgrade.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	notifications application.NotificationSurface
	pollRate      time.Duration
}

func NewWSHandler(notifications application.NotificationSurface) *WSHandler {
	rate := config.NotificationPollRate
	if rate <= 0 {
		rate = 30 * time.Second
	}
	return &WSHandler{notifications: notifications, pollRate: rate}
}

// Notifications godoc
// @Summary Live notification feed
// @Description Upgrades to a websocket and pushes the unread count and notification list on connect and on every poll interval. Browsers may pass the token as a query parameter.
// @Tags notifications
// @Security BearerAuth
// @Param token query string false "Session token"
// @Success 101 {object} notification.Feed
// @Failure 401 {object} response.ErrorResponse
// @Router /ws/notifications [get]
func (h *WSHandler) Notifications(c *gin.Context) {
	claims, ok := session(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.writeLoop(ctx, cancel, conn, claims)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("user_id", claims.UserID).Warn("notification socket closed")
			}
			return
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, claims *types.Claims) {
	defer func() { _ = conn.Close() }()
	defer cancel()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()
	pollTicker := time.NewTicker(h.pollRate)
	defer pollTicker.Stop()

	push := func() error {
		feed, err := h.notifications.Feed(ctx, claims.UserID, sessionOf(claims))
		if err != nil {
			log.WithError(err).WithField("user_id", claims.UserID).Error("failed to build notification feed")
			return nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(feed)
	}

	if err := push(); err != nil {
		return
	}
	for {
		select {
		case <-pollTicker.C:
			if err := push(); err != nil {
				return
			}
		case <-pingTicker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
