package hub

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 256
)

// Client - одно websocket-соединение. Поле room меняет только горутина Hub.Run,
// joinedGame - только ReadPump.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	room       string
	joinedGame uuid.UUID
	remoteAddr string
	logger     *slog.Logger
}

func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		remoteAddr: conn.RemoteAddr().String(),
		logger:     h.logger,
	}
}

// Serve registers the client and starts its pumps. It returns immediately.
func (c *Client) Serve() {
	if !c.hub.Register(c) {
		c.conn.Close()
		return
	}
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Websocket read failed", slog.String("remote_addr", c.remoteAddr), slog.Any("error", err))
			}
			return
		}
		if err := c.handle(message); err != nil {
			c.replyError(err)
		}
	}
}

// handle разбирает входящий кадр и ретранслирует его в комнату игры.
func (c *Client) handle(message []byte) error {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		return errors.New("malformed frame")
	}

	switch {
	case frame.Event == EventJoinGame:
		gameID, err := c.frameGameID(frame.Data, false)
		if err != nil {
			return err
		}
		c.joinedGame = gameID
		c.hub.joinGame(c, gameID)
		return nil

	case frame.Event == EventGameUpdated || legacyEvents[frame.Event]:
		gameID, err := c.frameGameID(frame.Data, true)
		if err != nil {
			return err
		}
		kind := UpdateFullUpdate
		if frame.Event != EventGameUpdated {
			kind = frame.Event
		}
		out, err := encodeFrame(EventGameUpdated, GameUpdatedPayload{GameID: gameID.String(), Type: kind, Data: frame.Data})
		if err != nil {
			return err
		}
		c.hub.Publish(RoomName(gameID), EventGameUpdated, out)
		return nil

	case frame.Event == EventRolesChanged:
		gameID, err := c.frameGameID(frame.Data, true)
		if err != nil {
			return err
		}
		var in struct {
			Positions []int `json:"positions"`
		}
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &in); err != nil {
				return errors.New("roles_changed: positions must be a list of seat numbers")
			}
		}
		if in.Positions == nil {
			in.Positions = []int{}
		}
		out, err := encodeFrame(EventRolesChanged, RolesChangedPayload{GameID: gameID.String(), Positions: in.Positions})
		if err != nil {
			return err
		}
		c.hub.Publish(RoomName(gameID), EventRolesChanged, out)
		return nil
	}
	return errors.New("unknown event " + frame.Event)
}

// frameGameID reads the game id from the payload. Relayed events may omit it and fall back to
// the game the client joined last.
func (c *Client) frameGameID(data json.RawMessage, allowCurrentRoom bool) (uuid.UUID, error) {
	var ref gameRef
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ref); err != nil {
			return uuid.Nil, errors.New("payload must be a game id or an object with game_id")
		}
	}
	if ref.id() != "" {
		return parseGameID(ref.id())
	}
	if allowCurrentRoom && c.joinedGame != uuid.Nil {
		return c.joinedGame, nil
	}
	return uuid.Nil, errors.New("game_id is required")
}

func (c *Client) replyError(err error) {
	frame, encErr := encodeFrame(EventError, ErrorPayload{Message: err.Error()})
	if encErr != nil {
		return
	}
	c.hub.sendTo(c, frame)
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Один кадр на сообщение: клиенты разбирают каждый кадр как отдельный JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Websocket write failed", slog.String("remote_addr", c.remoteAddr), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
