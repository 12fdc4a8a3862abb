package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"skillswap/metrics"
	"skillswap/middleware"
	"skillswap/model"
	"skillswap/service"
	"skillswap/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = 54 * time.Second
	onlineKeyTTL    = 30 * time.Second
	presenceTimeout = 5 * time.Second

	redisBroadcastChannel = "ws:broadcast"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeatureChecker runtime toggles read by the hub
type FeatureChecker interface {
	IsFeatureEnabled(featureKey string) bool
}

// PresenceStore persists presence and lists who should hear about it
type PresenceStore interface {
	SetPresence(ctx context.Context, userID uuid.UUID, online bool, at time.Time) error
	ConnectionIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Client one websocket connection. A user may hold several.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	mu     sync.RWMutex
	closed bool // Send is closed
}

// Hub tracks connected clients and fans payloads out to them.
// With redis set, payloads are also published so other instances reach their own clients.
type Hub struct {
	Clients map[uuid.UUID]map[uuid.UUID]*Client
	mu      sync.RWMutex

	MaxConnectionsPerUser int

	rdb      *redis.Client // optional
	settings FeatureChecker
	presence PresenceStore // optional
	notifSvc *service.NotificationService

	podID      string
	stopPubSub chan struct{}
	stopOnce   sync.Once
}

// BroadcastMessage cross-instance envelope on the redis channel
type BroadcastMessage struct {
	UserID  string `json:"user_id"`
	PodID   string `json:"pod_id"` // sender instance, used to skip our own messages
	Payload []byte `json:"payload"`
}

func NewHub(rdb *redis.Client, settings FeatureChecker, presence PresenceStore) *Hub {
	return &Hub{
		Clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: 18,
		rdb:                   rdb,
		settings:              settings,
		presence:              presence,
		podID:                 uuid.New().String(),
		stopPubSub:            make(chan struct{}),
	}
}

// SetNotificationService enables the unread summary sent on connect
func (h *Hub) SetNotificationService(notifSvc *service.NotificationService) {
	h.notifSvc = notifSvc
}

func (h *Hub) onlineStatusEnabled() bool {
	return h.rdb != nil && h.settings != nil && h.settings.IsFeatureEnabled(model.SettingOnlineStatus)
}

func onlineKey(userID uuid.UUID) string {
	return "online:" + userID.String()
}

// Register adds the client. Returns false when the user is over the device limit;
// the connection is closed in that case.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()

	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock()

		log.Warn().
			Str("user_id", client.UserID.String()).
			Int("max", h.MaxConnectionsPerUser).
			Msg("too many devices, rejecting connection")

		reason := fmt.Sprintf("Maximum %d devices allowed", h.MaxConnectionsPerUser)
		if msg, err := json.Marshal(wsEnvelope("error", gin.H{"code": "too_many_devices", "message": reason})); err == nil {
			_ = client.Conn.WriteMessage(websocket.TextMessage, msg)
		}
		_ = client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
		client.Conn.Close()
		return false
	}

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.Clients[client.UserID][client.ID] = client
	deviceCount := len(h.Clients[client.UserID])
	totalUsers := len(h.Clients)
	h.mu.Unlock()

	metrics.OnlineUsers.Set(float64(totalUsers))

	if h.onlineStatusEnabled() {
		if err := h.rdb.Set(context.Background(), onlineKey(client.UserID), "1", onlineKeyTTL).Err(); err != nil {
			log.Warn().Err(err).Str("user_id", client.UserID.String()).Msg("failed to set online key")
		}
	}

	if deviceCount == 1 {
		h.recordPresence(client.UserID, true)
		go h.notifyOnlineStatusChange(client.UserID, true)
	}

	log.Info().
		Str("user_id", client.UserID.String()).
		Str("client_id", client.ID.String()).
		Int("devices", deviceCount).
		Int("users", totalUsers).
		Msg("websocket connected")
	return true
}

// Unregister removes the client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	lastDevice := false
	removed := false
	if userClients, exists := h.Clients[client.UserID]; exists {
		if _, found := userClients[client.ID]; found {
			removed = true
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.Clients, client.UserID)
				lastDevice = true
			}
		}
	}
	totalUsers := len(h.Clients)
	h.mu.Unlock()

	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()

	if !removed {
		return
	}

	metrics.OnlineUsers.Set(float64(totalUsers))

	if lastDevice {
		if h.onlineStatusEnabled() {
			h.rdb.Del(context.Background(), onlineKey(client.UserID))
		}
		h.recordPresence(client.UserID, false)
		go h.notifyOnlineStatusChange(client.UserID, false)

		log.Info().Str("user_id", client.UserID.String()).Int("users", totalUsers).Msg("websocket disconnected, all devices offline")
	} else {
		log.Info().Str("user_id", client.UserID.String()).Str("client_id", client.ID.String()).Msg("websocket disconnected")
	}
}

func (h *Hub) recordPresence(userID uuid.UUID, online bool) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()
	if err := h.presence.SetPresence(ctx, userID, online, time.Now()); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Bool("online", online).Msg("failed to record presence")
	}
}

// notifyOnlineStatusChange tells the user's connections about the change
func (h *Hub) notifyOnlineStatusChange(userID uuid.UUID, isOnline bool) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	peers, err := h.presence.ConnectionIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load connections for online status update")
		return
	}

	for _, peerID := range peers {
		h.SendOnlineStatusUpdate(peerID, userID, isOnline)
	}
}

// trySend queues message without blocking. False when the client is closed or its buffer is full.
func (c *Client) trySend(message []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// SendToUser sends to every local device of the user
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) bool {
	h.mu.RLock()
	userClients := h.Clients[userID]
	clientsCopy := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	sentToAny := false
	for _, client := range clientsCopy {
		if client.trySend(message) {
			sentToAny = true
			continue
		}
		log.Error().Str("user_id", userID.String()).Str("client_id", client.ID.String()).Msg("send buffer full, closing connection")
		go h.Unregister(client)
	}

	return sentToAny
}

// BroadcastToUser sends locally and publishes for the other instances.
// Returns false when no local device got the message and nothing was published.
func (h *Hub) BroadcastToUser(userID uuid.UUID, message []byte) bool {
	delivered := h.SendToUser(userID, message)

	if h.rdb == nil {
		return delivered
	}

	msgBytes, err := json.Marshal(BroadcastMessage{
		UserID:  userID.String(),
		PodID:   h.podID,
		Payload: message,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast message")
		return delivered
	}

	if err := h.rdb.Publish(context.Background(), redisBroadcastChannel, msgBytes).Err(); err != nil {
		log.Error().Err(err).Msg("failed to publish broadcast message")
		return delivered
	}
	return true
}

// StartPubSub subscribes to the broadcast channel. Returns once the subscription is live.
func (h *Hub) StartPubSub(ctx context.Context) error {
	if h.rdb == nil {
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, redisBroadcastChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", redisBroadcastChannel, err)
	}

	log.Info().Str("pod_id", h.podID[:8]).Msg("redis pub/sub subscription started")

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-h.stopPubSub:
				log.Info().Str("pod_id", h.podID[:8]).Msg("redis pub/sub subscription stopped")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.handleBroadcastMessage([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (h *Hub) StopPubSub() {
	h.stopOnce.Do(func() { close(h.stopPubSub) })
}

func (h *Hub) handleBroadcastMessage(data []byte) {
	var msg BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal broadcast message")
		return
	}

	if msg.PodID == h.podID {
		return
	}

	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		log.Error().Err(err).Msg("invalid user id in broadcast message")
		return
	}

	h.SendToUser(userID, msg.Payload)
}

// IsUserOnline at least one device connected to this instance
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[userID]) > 0
}

func wsEnvelope(msgType string, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type": msgType,
		"data": data,
	}
}

func (h *Hub) push(userID uuid.UUID, msgType string, data interface{}) bool {
	payload, err := json.Marshal(wsEnvelope(msgType, data))
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to marshal websocket payload")
		return false
	}
	return h.BroadcastToUser(userID, payload)
}

// SendNotification pushes a persisted notification
func (h *Hub) SendNotification(userID uuid.UUID, notification interface{}) bool {
	return h.push(userID, "notification", notification)
}

// SendOnlineStatusUpdate tells userID that targetUserID went online or offline
func (h *Hub) SendOnlineStatusUpdate(userID, targetUserID uuid.UUID, isOnline bool) bool {
	return h.push(userID, "online_status_update", gin.H{
		"user_id":   targetUserID,
		"is_online": isOnline,
	})
}

// PublishMatchEvent pushes match events to the users involved
func (h *Hub) PublishMatchEvent(ctx context.Context, event service.MatchEvent) error {
	payload := func(peerID uuid.UUID) gin.H {
		return gin.H{"user_id": peerID, "score": event.Score, "at": event.At}
	}

	var missed []string
	send := func(to, peer uuid.UUID) {
		if !h.push(to, event.Type, payload(peer)) {
			missed = append(missed, to.String())
		}
	}

	switch event.Type {
	case service.EventMatchRequest:
		send(event.UserB, event.UserA)
	case service.EventMutualMatch:
		send(event.UserA, event.UserB)
		send(event.UserB, event.UserA)
	}

	if len(missed) > 0 {
		return fmt.Errorf("%s not delivered to %s", event.Type, strings.Join(missed, ", "))
	}
	return nil
}

// ForceOffline disconnects every device of the user
func (h *Hub) ForceOffline(userID uuid.UUID) {
	h.mu.RLock()
	clientsCopy := make([]*Client, 0, len(h.Clients[userID]))
	for _, client := range h.Clients[userID] {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		h.Unregister(client)
	}
}

// WSMessage inbound frame
type WSMessage struct {
	Type string          `json:"type"` // 'heartbeat'
	Data json.RawMessage `json:"data"`
}

// HandleWebSocket upgrades GET /ws?token=
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		userID, err := middleware.ValidateToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("websocket upgrade failed")
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
		}

		if !hub.Register(client) {
			return
		}

		go client.sendInitialState()
		go client.readPump()
		go client.writePump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user_id", c.UserID.String()).Msg("websocket closed unexpectedly")
			}
			return
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			c.sendError("Invalid JSON format")
			continue
		}

		switch wsMsg.Type {
		case "heartbeat":
			c.Conn.SetReadDeadline(time.Now().Add(pongWait))
			if c.Hub.onlineStatusEnabled() {
				c.Hub.rdb.Set(context.Background(), onlineKey(c.UserID), "1", onlineKeyTTL)
			}
			ack, _ := json.Marshal(wsEnvelope("heartbeat_ack", nil))
			c.trySend(ack)
		default:
			c.sendError("unsupported message type: " + wsMsg.Type)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendInitialState unread notification summary right after connecting
func (c *Client) sendInitialState() {
	if c.Hub.notifSvc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), presenceTimeout)
	defer cancel()

	summary, err := c.Hub.notifSvc.GetNotificationSummary(ctx, c.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", c.UserID.String()).Msg("failed to load notification summary")
		return
	}

	if payload, err := json.Marshal(wsEnvelope("notification_update", summary)); err == nil {
		c.trySend(payload)
	}
}

func (c *Client) sendError(errMsg string) {
	payload, _ := json.Marshal(wsEnvelope("error", gin.H{"message": errMsg}))
	if !c.trySend(payload) {
		log.Error().Str("user_id", c.UserID.String()).Msg("failed to queue error frame")
	}
}
