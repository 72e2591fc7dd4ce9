package models

import "github.com/google/uuid"

// GameSnapshot - полное денормализованное состояние игры. Единственный источник правды для
// админки и оверлея: любое уведомление хаба означает "перечитай снапшот".
type GameSnapshot struct {
	Game
	TournamentName *string   `json:"tournament_name"`
	Seating        []Seat    `json:"seating"`
	Rounds         []Round   `json:"rounds"`
	BestMove       *BestMove `json:"best_move"`
	Nominees       []Nominee `json:"nominees"`
}

func (s *GameSnapshot) IsSeated() bool {
	return len(s.Seating) > 0
}

func (s *GameSnapshot) SeatByPlayer(playerID uuid.UUID) (*Seat, bool) {
	for i := range s.Seating {
		if s.Seating[i].PlayerID == playerID {
			return &s.Seating[i], true
		}
	}
	return nil, false
}

func (s *GameSnapshot) SeatByPosition(position int) (*Seat, bool) {
	for i := range s.Seating {
		if s.Seating[i].Position == position {
			return &s.Seating[i], true
		}
	}
	return nil, false
}

func (s *GameSnapshot) RoundByNumber(n int) (*Round, bool) {
	for i := range s.Rounds {
		if s.Rounds[i].RoundNumber == n {
			return &s.Rounds[i], true
		}
	}
	return nil, false
}

// OutPlayers collects players that left the game: flagged as eliminated on the seat, killed at night or
// voted out by day. Only rounds numbered below beforeRound count; beforeRound <= 0 means every round.
func (s *GameSnapshot) OutPlayers(beforeRound int) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for _, seat := range s.Seating {
		if seat.IsEliminated {
			out[seat.PlayerID] = true
		}
	}
	for i := range s.Rounds {
		r := &s.Rounds[i]
		if beforeRound > 0 && r.RoundNumber >= beforeRound {
			continue
		}
		if killed := r.KilledPlayer(); killed != nil {
			out[*killed] = true
		}
		for _, id := range r.VotedOut() {
			out[id] = true
		}
	}
	return out
}

// IsOut reports whether the player is no longer selectable as a target.
func (s *GameSnapshot) IsOut(playerID uuid.UUID) bool {
	return s.OutPlayers(0)[playerID]
}

// SelectableTargets returns seats still in play at the start of the given round, in seat order.
func (s *GameSnapshot) SelectableTargets(roundNumber int) []Seat {
	out := s.OutPlayers(roundNumber)
	seats := make([]Seat, 0, len(s.Seating))
	for _, seat := range s.Seating {
		if !out[seat.PlayerID] {
			seats = append(seats, seat)
		}
	}
	return seats
}

// DerivedFirstKilled returns the round 1 victim, if round 1 is recorded with a kill.
func (s *GameSnapshot) DerivedFirstKilled() *uuid.UUID {
	r, ok := s.RoundByNumber(1)
	if !ok {
		return nil
	}
	return r.KilledPlayer()
}
