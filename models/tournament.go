package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира, соответствующие CHECK в БД.
type TournamentStatus string

const (
	StatusActive   TournamentStatus = "active"
	StatusFinished TournamentStatus = "finished"
)

func (s TournamentStatus) Valid() bool {
	return s == StatusActive || s == StatusFinished
}

// Tournament представляет турнир: плоский список игр и ростер игроков.
type Tournament struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	TotalGames  int              `json:"total_games" db:"total_games"`
	TotalTables int              `json:"total_tables" db:"total_tables"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	Games []Game `json:"games,omitempty" db:"-"`
}

// RosterEntry - участие игрока в турнире.
type RosterEntry struct {
	TournamentPlayerID uuid.UUID `json:"tournament_player_id"`
	Player
}
