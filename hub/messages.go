package hub

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Имена событий протокола.
const (
	EventJoinGame     = "join_game"
	EventJoinedGame   = "joined_game"
	EventGameUpdated  = "game_updated"
	EventRolesChanged = "roles_changed"
	EventError        = "error"
)

// UpdateFullUpdate - тип обновления, с которым ретранслируется клиентский game_updated.
const UpdateFullUpdate = "full_update"

// legacyEvents - старые события админки; ретранслируются как game_updated с type = имя события.
var legacyEvents = map[string]bool{
	"roles_updated":     true,
	"best_move_set":     true,
	"nominees_updated":  true,
	"round_added":       true,
	"player_eliminated": true,
}

// Frame - конверт любого сообщения в обе стороны.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinedGamePayload struct {
	GameID   string `json:"game_id"`
	RoomName string `json:"room"`
}

// GameUpdatedPayload - сигнал "перечитай снапшот". Data передаётся как есть от отправителя.
type GameUpdatedPayload struct {
	GameID string          `json:"game_id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type RolesChangedPayload struct {
	GameID    string `json:"game_id"`
	Positions []int  `json:"positions"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// gameRef вытаскивает идентификатор игры из входящего payload; старый клиент шлёт gameId
// или просто строку с id.
type gameRef struct {
	GameID      string `json:"game_id"`
	GameIDCamel string `json:"gameId"`
}

func (g *gameRef) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*g = gameRef{GameID: bare}
		return nil
	}
	type plain gameRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*g = gameRef(p)
	return nil
}

func (g gameRef) id() string {
	if g.GameID != "" {
		return g.GameID
	}
	return g.GameIDCamel
}

// RoomName returns the room that viewers of a game join.
func RoomName(gameID uuid.UUID) string {
	return "game_" + gameID.String()
}

func parseGameID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid game id %q", raw)
	}
	return id, nil
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: data})
}
