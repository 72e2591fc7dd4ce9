package models

import (
	"time"

	"github.com/google/uuid"
)

// SeatCount - фиксированное число игроков за столом.
const SeatCount = 10

// EliminationReasonRemoved - причина выбытия, проставляемая при удалении игрока или красной карточке.
const EliminationReasonRemoved = "removed"

type GameStatus string

const (
	GameStatusPending    GameStatus = "pending"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusFinished   GameStatus = "finished"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusPending, GameStatusInProgress, GameStatusFinished:
		return true
	}
	return false
}

type Role string

const (
	RoleCivilian Role = "civilian"
	RoleMafia    Role = "mafia"
	RoleDon      Role = "don"
	RoleSheriff  Role = "sheriff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCivilian, RoleMafia, RoleDon, RoleSheriff:
		return true
	}
	return false
}

// DefaultTeam returns the team a role plays for.
func (r Role) DefaultTeam() Team {
	if r == RoleMafia || r == RoleDon {
		return TeamBlack
	}
	return TeamRed
}

type Team string

const (
	TeamRed   Team = "red"
	TeamBlack Team = "black"
)

func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlack
}

type Card string

const (
	CardNone   Card = "none"
	CardYellow Card = "yellow"
	CardRed    Card = "red"
)

func (c Card) Valid() bool {
	switch c {
	case CardNone, CardYellow, CardRed:
		return true
	}
	return false
}

// Game - одна игра турнира за конкретным столом.
type Game struct {
	ID            uuid.UUID  `json:"id"`
	TournamentID  uuid.UUID  `json:"tournament_id"`
	GameNumber    int        `json:"game_number"`
	TableNumber   int        `json:"table_number"`
	SeriesName    *string    `json:"series_name"`
	Status        GameStatus `json:"status"`
	OverlayHidden bool       `json:"overlay_hidden"`
	CreatedAt     time.Time  `json:"created_at"`

	// Заполняется только в списках игр турнира.
	SeatingCount *int `json:"seating_count,omitempty"`
}

// Seat - привязка игрока к месту за столом вместе с ролью и статусом.
type Seat struct {
	GameID            uuid.UUID `json:"game_id"`
	Position          int       `json:"position"`
	PlayerID          uuid.UUID `json:"player_id"`
	Role              Role      `json:"role"`
	Team              Team      `json:"team"`
	IsEliminated      bool      `json:"is_eliminated"`
	EliminationReason *string   `json:"elimination_reason"`
	Card              Card      `json:"card"`

	Nickname string  `json:"nickname"`
	PhotoURL *string `json:"photo_url"`
}

// SeatAssignment - входные данные рассадки.
type SeatAssignment struct {
	Position int       `json:"position"`
	PlayerID uuid.UUID `json:"player_id"`
}

// RoleAssignment - входные данные раздачи ролей.
type RoleAssignment struct {
	Position int  `json:"position"`
	Role     Role `json:"role"`
	Team     Team `json:"team"`
}

// Round - ночь и следующее за ней голосование.
type Round struct {
	GameID               uuid.UUID   `json:"game_id"`
	RoundNumber          int         `json:"round_number"`
	MafiaKillPlayerID    *uuid.UUID  `json:"mafia_kill_player_id"`
	MafiaMiss            bool        `json:"mafia_miss"`
	DonCheckPlayerID     *uuid.UUID  `json:"don_check_player_id"`
	SheriffCheckPlayerID *uuid.UUID  `json:"sheriff_check_player_id"`
	VotedOutPlayers      []uuid.UUID `json:"voted_out_players"`
	NobodyVotedOut       bool        `json:"nobody_voted_out"`
}

// KilledPlayer returns the mafia victim of the night, nil on a miss or an empty night.
func (r *Round) KilledPlayer() *uuid.UUID {
	if r == nil || r.MafiaMiss || r.MafiaKillPlayerID == nil {
		return nil
	}
	return r.MafiaKillPlayerID
}

// VotedOut returns the players removed by the day vote.
func (r *Round) VotedOut() []uuid.UUID {
	if r == nil || r.NobodyVotedOut {
		return nil
	}
	return r.VotedOutPlayers
}

// BestMove - лучший ход первого убитого.
type BestMove struct {
	GameID              uuid.UUID  `json:"game_id"`
	FirstKilledPlayerID *uuid.UUID `json:"first_killed_player_id"`
	Suspect1            *uuid.UUID `json:"suspect_1"`
	Suspect2            *uuid.UUID `json:"suspect_2"`
	Suspect3            *uuid.UUID `json:"suspect_3"`
}

// Suspects returns the non-empty suspects in order.
func (b *BestMove) Suspects() []uuid.UUID {
	if b == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, 3)
	for _, s := range []*uuid.UUID{b.Suspect1, b.Suspect2, b.Suspect3} {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Nominee - игрок, выставленный на голосование.
type Nominee struct {
	GameID   uuid.UUID `json:"game_id"`
	PlayerID uuid.UUID `json:"player_id"`
	Position int       `json:"position"`
	Nickname string    `json:"nickname"`
}
