package services

import (
	"fmt"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/google/uuid"
)

// Допустимый расклад ролей на стол из 10 игроков.
const (
	requiredDons     = 1
	requiredSheriffs = 1
	minMafia         = 2
	maxMafia         = 3
)

// RoundInput - данные раунда от админки. NobodyVotedOut необязателен и выводится из списка.
type RoundInput struct {
	RoundNumber          int         `json:"round_number"`
	MafiaKillPlayerID    *uuid.UUID  `json:"mafia_kill_player_id"`
	MafiaMiss            bool        `json:"mafia_miss"`
	DonCheckPlayerID     *uuid.UUID  `json:"don_check_player_id"`
	SheriffCheckPlayerID *uuid.UUID  `json:"sheriff_check_player_id"`
	VotedOutPlayers      []uuid.UUID `json:"voted_out_players"`
	NobodyVotedOut       *bool       `json:"nobody_voted_out"`
}

// BestMoveInput - данные ЛХ. FirstKilledPlayerID учитывается, только пока нет первого раунда.
type BestMoveInput struct {
	FirstKilledPlayerID *uuid.UUID `json:"first_killed_player_id"`
	Suspect1            *uuid.UUID `json:"suspect_1"`
	Suspect2            *uuid.UUID `json:"suspect_2"`
	Suspect3            *uuid.UUID `json:"suspect_3"`
}

func validateSeating(seats []models.SeatAssignment) error {
	if err := models.ValidateSeating(seats); err != nil {
		return invalid("seating", "%s", err.Error())
	}
	return nil
}

// normalizeRoles checks a full role assignment against the seating and fills omitted teams.
// Warnings report roles sitting on an unusual team.
func normalizeRoles(snap *models.GameSnapshot, roles []models.RoleAssignment) ([]models.RoleAssignment, []string, error) {
	if !snap.IsSeated() {
		return nil, nil, fmt.Errorf("%w: %w", ErrValidationFailed, ErrSeatingRequired)
	}
	if len(roles) != models.SeatCount {
		return nil, nil, invalid("roles", "exactly %d roles are required, got %d", models.SeatCount, len(roles))
	}

	out := make([]models.RoleAssignment, 0, len(roles))
	var warnings []string
	seen := make(map[int]bool, len(roles))
	counts := make(map[models.Role]int)

	for _, ra := range roles {
		if ra.Position < 1 || ra.Position > models.SeatCount {
			return nil, nil, invalid("roles", "position %d is out of range 1..%d", ra.Position, models.SeatCount)
		}
		if seen[ra.Position] {
			return nil, nil, invalid("roles", "position %d is assigned twice", ra.Position)
		}
		seen[ra.Position] = true

		if ra.Role == "" {
			ra.Role = models.RoleCivilian
		}
		if !ra.Role.Valid() {
			return nil, nil, invalid("roles", "unknown role %q at position %d", ra.Role, ra.Position)
		}
		if ra.Team == "" {
			ra.Team = ra.Role.DefaultTeam()
		}
		if !ra.Team.Valid() {
			return nil, nil, invalid("roles", "unknown team %q at position %d", ra.Team, ra.Position)
		}
		if ra.Team != ra.Role.DefaultTeam() {
			warnings = append(warnings, fmt.Sprintf("position %d: role %s plays for team %s", ra.Position, ra.Role, ra.Team))
		}
		counts[ra.Role]++
		out = append(out, ra)
	}

	if counts[models.RoleDon] != requiredDons {
		return nil, nil, invalid("roles", "exactly %d don is required, got %d", requiredDons, counts[models.RoleDon])
	}
	if counts[models.RoleSheriff] != requiredSheriffs {
		return nil, nil, invalid("roles", "exactly %d sheriff is required, got %d", requiredSheriffs, counts[models.RoleSheriff])
	}
	if m := counts[models.RoleMafia]; m < minMafia || m > maxMafia {
		return nil, nil, invalid("roles", "between %d and %d mafia are required, got %d", minMafia, maxMafia, m)
	}
	return out, warnings, nil
}

// changedPositions lists positions whose role or team differs from the current seating.
func changedPositions(snap *models.GameSnapshot, roles []models.RoleAssignment) []int {
	changed := make([]int, 0)
	for pos := 1; pos <= models.SeatCount; pos++ {
		for _, ra := range roles {
			if ra.Position != pos {
				continue
			}
			seat, ok := snap.SeatByPosition(pos)
			if !ok || seat.Role != ra.Role || seat.Team != ra.Team {
				changed = append(changed, pos)
			}
		}
	}
	return changed
}

// normalizeNominees collapses repeats (first occurrence wins) and rejects players who are
// not seated or already out of the game.
func normalizeNominees(snap *models.GameSnapshot, playerIDs []uuid.UUID) ([]uuid.UUID, error) {
	out := snap.OutPlayers(0)
	seen := make(map[uuid.UUID]bool, len(playerIDs))
	nominees := make([]uuid.UUID, 0, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := snap.SeatByPlayer(id); !ok {
			return nil, invalid("player_ids", "player %s is not seated in this game", id)
		}
		if out[id] {
			return nil, invalid("player_ids", "player %s is already out of the game", id)
		}
		nominees = append(nominees, id)
	}
	return nominees, nil
}

// buildRound validates round input against the snapshot. A referenced player must be seated and
// still in play at the start of the round; references the stored round already holds are kept
// as they are, so later eliminations never lock an earlier round.
func buildRound(snap *models.GameSnapshot, gameID uuid.UUID, in RoundInput) (*models.Round, error) {
	if in.RoundNumber < 1 {
		return nil, invalid("round_number", "must be at least 1")
	}
	if in.MafiaMiss && in.MafiaKillPlayerID != nil {
		return nil, invalid("mafia_kill_player_id", "a round cannot have both a kill and a miss")
	}

	votedOut := make([]uuid.UUID, 0, len(in.VotedOutPlayers))
	seenVoted := make(map[uuid.UUID]bool, len(in.VotedOutPlayers))
	for _, id := range in.VotedOutPlayers {
		if !seenVoted[id] {
			seenVoted[id] = true
			votedOut = append(votedOut, id)
		}
	}
	if in.NobodyVotedOut != nil && *in.NobodyVotedOut != (len(votedOut) == 0) {
		return nil, invalid("nobody_voted_out", "must be true exactly when voted_out_players is empty")
	}

	existing := make(map[uuid.UUID]bool)
	if prev, ok := snap.RoundByNumber(in.RoundNumber); ok {
		for _, id := range roundReferences(prev.MafiaKillPlayerID, prev.DonCheckPlayerID, prev.SheriffCheckPlayerID, prev.VotedOutPlayers) {
			existing[id] = true
		}
	}
	outBefore := snap.OutPlayers(in.RoundNumber)

	check := func(field string, id *uuid.UUID) error {
		if id == nil {
			return nil
		}
		if _, ok := snap.SeatByPlayer(*id); !ok {
			return invalid(field, "player %s is not seated in this game", *id)
		}
		if outBefore[*id] && !existing[*id] {
			return invalid(field, "player %s is already out before round %d", *id, in.RoundNumber)
		}
		return nil
	}
	if err := check("mafia_kill_player_id", in.MafiaKillPlayerID); err != nil {
		return nil, err
	}
	if err := check("don_check_player_id", in.DonCheckPlayerID); err != nil {
		return nil, err
	}
	if err := check("sheriff_check_player_id", in.SheriffCheckPlayerID); err != nil {
		return nil, err
	}
	for i := range votedOut {
		if err := check("voted_out_players", &votedOut[i]); err != nil {
			return nil, err
		}
	}

	return &models.Round{
		GameID:               gameID,
		RoundNumber:          in.RoundNumber,
		MafiaKillPlayerID:    in.MafiaKillPlayerID,
		MafiaMiss:            in.MafiaMiss,
		DonCheckPlayerID:     in.DonCheckPlayerID,
		SheriffCheckPlayerID: in.SheriffCheckPlayerID,
		VotedOutPlayers:      votedOut,
		NobodyVotedOut:       len(votedOut) == 0,
	}, nil
}

func roundReferences(kill, don, sheriff *uuid.UUID, voted []uuid.UUID) []uuid.UUID {
	refs := make([]uuid.UUID, 0, 3+len(voted))
	for _, id := range []*uuid.UUID{kill, don, sheriff} {
		if id != nil {
			refs = append(refs, *id)
		}
	}
	return append(refs, voted...)
}

// buildBestMove validates the suspects and resolves the first killed player. Once round 1 is
// recorded the first killed player always comes from it.
func buildBestMove(snap *models.GameSnapshot, gameID uuid.UUID, in BestMoveInput) (*models.BestMove, []string, error) {
	suspects := []*uuid.UUID{in.Suspect1, in.Suspect2, in.Suspect3}
	seen := make(map[uuid.UUID]bool, 3)
	for i, s := range suspects {
		field := fmt.Sprintf("suspect_%d", i+1)
		if s == nil || *s == uuid.Nil {
			return nil, nil, invalid(field, "three suspects are required")
		}
		if seen[*s] {
			return nil, nil, invalid(field, "suspects must be distinct")
		}
		seen[*s] = true
		if _, ok := snap.SeatByPlayer(*s); !ok {
			return nil, nil, invalid(field, "player %s is not seated in this game", *s)
		}
	}

	var warnings []string
	firstKilled := in.FirstKilledPlayerID
	if _, ok := snap.RoundByNumber(1); ok {
		derived := snap.DerivedFirstKilled()
		if firstKilled != nil && (derived == nil || *derived != *firstKilled) {
			warnings = append(warnings, "first killed player is taken from round 1")
		}
		firstKilled = derived
	} else if firstKilled != nil {
		if _, ok := snap.SeatByPlayer(*firstKilled); !ok {
			return nil, nil, invalid("first_killed_player_id", "player %s is not seated in this game", *firstKilled)
		}
	}

	if firstKilled != nil && seen[*firstKilled] {
		warnings = append(warnings, "the first killed player is listed among their own suspects")
	}

	return &models.BestMove{
		GameID:              gameID,
		FirstKilledPlayerID: firstKilled,
		Suspect1:            in.Suspect1,
		Suspect2:            in.Suspect2,
		Suspect3:            in.Suspect3,
	}, warnings, nil
}
