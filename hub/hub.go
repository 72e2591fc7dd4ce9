// Package hub fans out game invalidation signals to websocket viewers grouped in per-game rooms.
package hub

import (
	"context"
	"log/slog"

	"github.com/Dosada05/mafia-overlay/metrics"
	"github.com/google/uuid"
)

type joinRequest struct {
	client *Client
	gameID uuid.UUID
}

type directMessage struct {
	client *Client
	data   []byte
}

type roomMessage struct {
	room  string
	event string
	data  []byte
}

// Hub владеет комнатами. Всё состояние меняется только в горутине Run, остальные
// общаются с ним через каналы. Отправка клиенту никогда не блокирует: если буфер
// клиента полон, сообщение теряется.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	broadcast  chan roomMessage
	direct     chan directMessage
	done       chan struct{}

	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHub(logger *slog.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan roomMessage, 256),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger.With(slog.String("component", "hub")),
		metrics:    m,
	}
}

// Run обслуживает хаб до отмены ctx, затем закрывает все клиентские соединения.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			h.drop(c)
		}
		close(h.done)
		h.logger.Info("Hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.metrics.ConnectionOpened()
			h.logger.Debug("Client connected", slog.String("remote_addr", c.remoteAddr))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.Debug("Client disconnected", slog.String("remote_addr", c.remoteAddr))
			}

		case req := <-h.join:
			if !h.clients[req.client] {
				continue
			}
			room := RoomName(req.gameID)
			h.leaveRoom(req.client)
			if h.rooms[room] == nil {
				h.rooms[room] = make(map[*Client]bool)
			}
			h.rooms[room][req.client] = true
			req.client.room = room
			h.metrics.SetRooms(len(h.rooms))

			ack, err := encodeFrame(EventJoinedGame, JoinedGamePayload{GameID: req.gameID.String(), RoomName: room})
			if err == nil {
				h.deliver(req.client, ack)
			}
			h.logger.Debug("Client joined game room",
				slog.String("room", room), slog.Int("room_size", len(h.rooms[room])))

		case msg := <-h.direct:
			if h.clients[msg.client] {
				h.deliver(msg.client, msg.data)
			}

		case msg := <-h.broadcast:
			members := h.rooms[msg.room]
			for c := range members {
				h.deliver(c, msg.data)
			}
			h.metrics.EventRelayed(msg.event)
		}
	}
}

// deliver кладёт сообщение в буфер клиента без блокировки.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.metrics.MessageDropped()
		h.logger.Warn("Client send buffer full, message dropped", slog.String("room", c.room))
	}
}

func (h *Hub) leaveRoom(c *Client) {
	if c.room == "" {
		return
	}
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
	h.metrics.SetRooms(len(h.rooms))
}

func (h *Hub) drop(c *Client) {
	h.leaveRoom(c)
	delete(h.clients, c)
	close(c.send)
	h.metrics.ConnectionClosed()
}

func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) joinGame(c *Client, gameID uuid.UUID) {
	select {
	case h.join <- joinRequest{client: c, gameID: gameID}:
	case <-h.done:
	}
}

// sendTo delivers a frame to one client, if it is still connected.
func (h *Hub) sendTo(c *Client, frame []byte) {
	select {
	case h.direct <- directMessage{client: c, data: frame}:
	case <-h.done:
	}
}

// Publish enqueues an already encoded frame for every member of the room. It never blocks the caller:
// when the hub is saturated or stopped the message is dropped.
func (h *Hub) Publish(room, event string, frame []byte) {
	select {
	case h.broadcast <- roomMessage{room: room, event: event, data: frame}:
	case <-h.done:
	default:
		h.metrics.MessageDropped()
		h.logger.Warn("Hub broadcast queue full, message dropped", slog.String("room", room), slog.String("event", event))
	}
}

// NotifyGameUpdated tells viewers of the game to re-fetch its snapshot.
func (h *Hub) NotifyGameUpdated(gameID uuid.UUID, kind string) {
	frame, err := encodeFrame(EventGameUpdated, GameUpdatedPayload{GameID: gameID.String(), Type: kind})
	if err != nil {
		h.logger.Error("Failed to encode game_updated", slog.Any("error", err))
		return
	}
	h.Publish(RoomName(gameID), EventGameUpdated, frame)
}

// NotifyRolesChanged tells viewers which seats got a new role.
func (h *Hub) NotifyRolesChanged(gameID uuid.UUID, positions []int) {
	if positions == nil {
		positions = []int{}
	}
	frame, err := encodeFrame(EventRolesChanged, RolesChangedPayload{GameID: gameID.String(), Positions: positions})
	if err != nil {
		h.logger.Error("Failed to encode roles_changed", slog.Any("error", err))
		return
	}
	h.Publish(RoomName(gameID), EventRolesChanged, frame)
}
