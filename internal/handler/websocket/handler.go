package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"teamhub/internal/realtime"
	"teamhub/internal/service"
)

// WebSocketHandler 负责处理 WebSocket 升级请求和客户端注册。
// 认证在升级之前完成：握手携带的 token 验证失败时直接返回 401，
// 连接根本不会升级。
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	hub         *realtime.Hub
	authService *service.AuthService
}

// NewWebSocketHandler 创建 WebSocketHandler 实例
func NewWebSocketHandler(hub *realtime.Hub, authService *service.AuthService) *WebSocketHandler {
	if hub == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if authService == nil {
		panic("AuthService cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 允许所有来源连接 (生产环境应配置具体的允许来源)
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &WebSocketHandler{
		upgrader:    upgrader,
		hub:         hub,
		authService: authService,
	}
}

// HandleConnection 处理 WebSocket 连接请求。
// token 从 ?token= 查询参数或 Authorization: Bearer 头中提取
// (浏览器的 WebSocket API 不支持自定义请求头，查询参数是主要途径)。
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	tokenStr := extractHandshakeToken(c)

	identity, err := h.authService.VerifyToken(c.Request.Context(), tokenStr)
	if err != nil {
		logrus.WithError(err).Warn("WS Handler: Handshake authentication failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"user_id": identity.ID, "username": identity.Username})

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 方法会自动发送 HTTP 错误响应，这里只需要记录日志
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}
	logCtx.Info("WS Handler: Connection upgraded to WebSocket")

	client := realtime.NewClient(h.hub, conn, identity)
	h.hub.Register(client)
	client.Run()
}

// extractHandshakeToken 从握手请求中提取 token。
func extractHandshakeToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
