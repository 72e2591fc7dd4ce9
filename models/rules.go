package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateSeating checks the shape of a full seating: exactly SeatCount entries,
// positions 1..SeatCount used once each, no player seated twice.
func ValidateSeating(seats []SeatAssignment) error {
	if len(seats) != SeatCount {
		return fmt.Errorf("seating must contain exactly %d players, got %d", SeatCount, len(seats))
	}
	positions := make(map[int]bool, SeatCount)
	players := make(map[uuid.UUID]bool, SeatCount)
	for _, s := range seats {
		if s.Position < 1 || s.Position > SeatCount {
			return fmt.Errorf("position %d is out of range 1..%d", s.Position, SeatCount)
		}
		if positions[s.Position] {
			return fmt.Errorf("position %d is assigned twice", s.Position)
		}
		positions[s.Position] = true

		if s.PlayerID == uuid.Nil {
			return fmt.Errorf("position %d has no player", s.Position)
		}
		if players[s.PlayerID] {
			return fmt.Errorf("player %s is seated twice", s.PlayerID)
		}
		players[s.PlayerID] = true
	}
	return nil
}
