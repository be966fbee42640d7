package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kireiworks/cleaning-backend/internal/app/service"
	apperrors "github.com/kireiworks/cleaning-backend/internal/errors"
	"github.com/kireiworks/cleaning-backend/internal/middleware"
	ws "github.com/kireiworks/cleaning-backend/internal/websocket"
	"github.com/kireiworks/cleaning-backend/pkg/util"
)

type NotificationController struct {
	notificationService service.NotificationService
	hub                 *ws.Hub
	upgrader            websocket.Upgrader
}

// NewNotificationController accepts websocket handshakes only from allowedOrigins
func NewNotificationController(notificationService service.NotificationService, hub *ws.Hub, allowedOrigins []string) *NotificationController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &NotificationController{
		notificationService: notificationService,
		hub:                 hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非ブラウザクライアントはOriginを送らない
				return origin == "" || allowed[origin]
			},
		},
	}
}

// ListNotifications
// GET /api/auth/notifications?unreadOnly=&limit=&offset=
func (ctrl *NotificationController) ListNotifications(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(c.Query("unreadOnly"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := ctrl.notificationService.List(identity, unreadOnly, limit, offset)
	if err != nil {
		respondError(c, log, err, "list notifications")
		return
	}

	c.JSON(http.StatusOK, list)
}

// UnreadCount
// GET /api/auth/notifications/unread-count
func (ctrl *NotificationController) UnreadCount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	count, err := ctrl.notificationService.UnreadCount(identity)
	if err != nil {
		respondError(c, log, err, "count unread notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}

// MarkRead
// PUT /api/auth/notifications/:id/read
func (ctrl *NotificationController) MarkRead(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.notificationService.MarkRead(identity, id); err != nil {
		respondError(c, log, err, "mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "既読にしました",
	})
}

// MarkAllRead
// PUT /api/auth/notifications/read-all
func (ctrl *NotificationController) MarkAllRead(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}

	if err := ctrl.notificationService.MarkAllRead(identity); err != nil {
		respondError(c, log, err, "mark all notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "すべて既読にしました",
	})
}

// WebSocketHandler upgrades the request and registers the session with the hub.
// The token arrives as ?token= and is never logged.
// GET /api/auth/ws
func (ctrl *NotificationController) WebSocketHandler(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	identity, ok := identityOrAbort(c)
	if !ok {
		return
	}
	// 通知の受信者はユーザーアカウントのみ
	if identity.AccountType != util.AccountTypeUser {
		apperrors.Forbidden(c, "通知はユーザーアカウントでのみ受信できます")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, identity.AccountID)

	if count, err := ctrl.notificationService.UnreadCount(identity); err == nil {
		if msg, err := json.Marshal(ws.Event{Type: "unread_count", Data: gin.H{"count": count}}); err == nil {
			client.Send <- msg
		}
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"user_id": identity.AccountID,
	})
}
