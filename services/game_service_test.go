package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Dosada05/mafia-overlay/metrics"
	"github.com/Dosada05/mafia-overlay/models"
	"github.com/Dosada05/mafia-overlay/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// table собирает игру с полной рассадкой из 10 мирных.
func table(t *testing.T) (*models.GameSnapshot, []uuid.UUID) {
	t.Helper()
	snap := &models.GameSnapshot{Game: models.Game{
		ID:           uuid.New(),
		TournamentID: uuid.New(),
		GameNumber:   1,
		TableNumber:  1,
		Status:       models.GameStatusInProgress,
	}}
	ids := make([]uuid.UUID, models.SeatCount)
	for i := range ids {
		ids[i] = uuid.New()
		photo := gofakeit.URL()
		snap.Seating = append(snap.Seating, models.Seat{
			GameID:   snap.ID,
			Position: i + 1,
			PlayerID: ids[i],
			Role:     models.RoleCivilian,
			Team:     models.TeamRed,
			Card:     models.CardNone,
			Nickname: gofakeit.Username(),
			PhotoURL: &photo,
		})
	}
	snap.Rounds = []models.Round{}
	snap.Nominees = []models.Nominee{}
	return snap, ids
}

func newTestGameService(repo *FakeGameRepository) (GameService, *FakeNotifier, *metrics.Metrics) {
	n := &FakeNotifier{}
	m := metrics.New()
	return NewGameService(repo, n, m, testLogger), n, m
}

func snapshotRepo(snap *models.GameSnapshot) *FakeGameRepository {
	return &FakeGameRepository{
		LoadSnapshotFunc: func(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error) {
			if gameID != snap.ID {
				return nil, repositories.ErrGameNotFound
			}
			return snap, nil
		},
	}
}

// commandCount reads mafia_overlay_game_commands_total for the given labels.
func commandCount(t *testing.T, m *metrics.Metrics, command, outcome string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "mafia_overlay_game_commands_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["command"] == command && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func seatingFor(ids []uuid.UUID) []models.SeatAssignment {
	seats := make([]models.SeatAssignment, len(ids))
	for i, id := range ids {
		seats[i] = models.SeatAssignment{Position: i + 1, PlayerID: id}
	}
	return seats
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func boolPtr(b bool) *bool { return &b }

func TestGameService_AssignSeating(t *testing.T) {
	ctx := context.Background()
	gameID := uuid.New()
	ids := make([]uuid.UUID, models.SeatCount)
	for i := range ids {
		ids[i] = uuid.New()
	}

	tests := []struct {
		name       string
		seats      []models.SeatAssignment
		repoErr    error
		wantErr    []error
		wantTrace  []string
		wantNotify bool
	}{
		{
			name:       "full seating replaces the table",
			seats:      seatingFor(ids),
			wantTrace:  []string{"ReplaceSeating"},
			wantNotify: true,
		},
		{
			name:      "short seating is rejected before the repository",
			seats:     seatingFor(ids[:9]),
			wantErr:   []error{ErrValidationFailed},
			wantTrace: nil,
		},
		{
			name: "same player twice is rejected",
			seats: func() []models.SeatAssignment {
				s := seatingFor(ids)
				s[9].PlayerID = ids[0]
				return s
			}(),
			wantErr: []error{ErrValidationFailed},
		},
		{
			name:      "unknown player surfaces as validation error",
			seats:     seatingFor(ids),
			repoErr:   repositories.ErrGamePlayerNotFound,
			wantErr:   []error{ErrValidationFailed, ErrPlayerNotFound},
			wantTrace: []string{"ReplaceSeating"},
		},
		{
			name:      "missing game",
			seats:     seatingFor(ids),
			repoErr:   repositories.ErrGameNotFound,
			wantErr:   []error{ErrGameNotFound},
			wantTrace: []string{"ReplaceSeating"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &FakeGameRepository{
				ReplaceSeatingFunc: func(ctx context.Context, id uuid.UUID, seats []models.SeatAssignment) error {
					assert.Equal(t, gameID, id)
					return tt.repoErr
				},
			}
			svc, n, _ := newTestGameService(repo)

			err := svc.AssignSeating(ctx, gameID, tt.seats)
			if len(tt.wantErr) > 0 {
				require.Error(t, err)
				for _, want := range tt.wantErr {
					assert.ErrorIs(t, err, want)
				}
				assert.Empty(t, n.Sent(), "failed commands must not notify")
			} else {
				require.NoError(t, err)
			}
			if tt.wantTrace == nil {
				assert.Empty(t, repo.Trace())
			} else {
				assert.Equal(t, tt.wantTrace, repo.Trace())
			}
			if tt.wantNotify {
				assert.Equal(t, []notification{{GameID: gameID, Event: "game_updated", Kind: UpdateSeating}}, n.Sent())
			}
		})
	}
}

func TestGameService_AssignSeating_RecordsOutcome(t *testing.T) {
	svc, _, m := newTestGameService(&FakeGameRepository{})

	require.Error(t, svc.AssignSeating(context.Background(), uuid.New(), nil))
	assert.Equal(t, 1.0, commandCount(t, m, "assign_seating", "invalid"))

	ids := make([]uuid.UUID, models.SeatCount)
	for i := range ids {
		ids[i] = uuid.New()
	}
	require.NoError(t, svc.AssignSeating(context.Background(), uuid.New(), seatingFor(ids)))
	assert.Equal(t, 1.0, commandCount(t, m, "assign_seating", "ok"))
}

func TestGameService_AssignRoles(t *testing.T) {
	standard := func() []models.RoleAssignment {
		roles := make([]models.RoleAssignment, models.SeatCount)
		for i := range roles {
			roles[i] = models.RoleAssignment{Position: i + 1}
		}
		roles[0].Role = models.RoleDon
		roles[3].Role = models.RoleMafia
		roles[6].Role = models.RoleMafia
		roles[8].Role = models.RoleSheriff
		return roles
	}

	t.Run("valid distribution fills teams and reports changed positions", func(t *testing.T) {
		snap, _ := table(t)
		repo := snapshotRepo(snap)
		var applied []models.RoleAssignment
		repo.ApplyRolesFunc = func(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) error {
			applied = roles
			return nil
		}
		svc, n, _ := newTestGameService(repo)

		res, err := svc.AssignRoles(context.Background(), snap.ID, standard())
		require.NoError(t, err)

		assert.Equal(t, []int{1, 4, 7, 9}, res.ChangedPositions)
		assert.Empty(t, res.Warnings)
		require.Len(t, applied, models.SeatCount)
		assert.Equal(t, models.TeamBlack, applied[0].Team)
		assert.Equal(t, models.TeamRed, applied[8].Team)
		assert.Equal(t, models.RoleCivilian, applied[1].Role)
		assert.Equal(t, []string{"LoadSnapshot", "ApplyRoles"}, repo.Trace())

		want := []notification{
			{GameID: snap.ID, Event: "roles_changed", Positions: []int{1, 4, 7, 9}},
			{GameID: snap.ID, Event: "game_updated", Kind: UpdateRoles},
		}
		if diff := cmp.Diff(want, n.Sent()); diff != "" {
			t.Errorf("notifications mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unusual team is accepted with a warning", func(t *testing.T) {
		snap, _ := table(t)
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		roles := standard()
		roles[8].Team = models.TeamBlack
		res, err := svc.AssignRoles(context.Background(), snap.ID, roles)
		require.NoError(t, err)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "position 9")
	})

	t.Run("re-applying the same roles changes nothing", func(t *testing.T) {
		snap, _ := table(t)
		stored, _, err := normalizeRoles(snap, standard())
		require.NoError(t, err)
		for _, ra := range stored {
			seat, ok := snap.SeatByPosition(ra.Position)
			require.True(t, ok)
			seat.Role = ra.Role
			seat.Team = ra.Team
		}
		require.Equal(t, models.RoleCivilian, snap.Seating[1].Role)
		svc, n, _ := newTestGameService(snapshotRepo(snap))

		res, err := svc.AssignRoles(context.Background(), snap.ID, standard())
		require.NoError(t, err)
		assert.Empty(t, res.ChangedPositions)
		require.Len(t, n.Sent(), 2)
		assert.Equal(t, []int{}, n.Sent()[0].Positions)
	})

	invalidCases := []struct {
		name   string
		mutate func([]models.RoleAssignment) []models.RoleAssignment
	}{
		{name: "two dons", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[1].Role = models.RoleDon
			return r
		}},
		{name: "no sheriff", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[8].Role = models.RoleCivilian
			return r
		}},
		{name: "one mafia", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[6].Role = models.RoleCivilian
			return r
		}},
		{name: "four mafia", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[1].Role = models.RoleMafia
			r[2].Role = models.RoleMafia
			return r
		}},
		{name: "nine roles", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			return r[:9]
		}},
		{name: "duplicate position", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[2].Position = 2
			return r
		}},
		{name: "unknown role", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[2].Role = "werewolf"
			return r
		}},
		{name: "unknown team", mutate: func(r []models.RoleAssignment) []models.RoleAssignment {
			r[2].Team = "green"
			return r
		}},
	}
	for _, tc := range invalidCases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			snap, _ := table(t)
			repo := snapshotRepo(snap)
			svc, n, _ := newTestGameService(repo)

			_, err := svc.AssignRoles(context.Background(), snap.ID, tc.mutate(standard()))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.NotContains(t, repo.Trace(), "ApplyRoles")
			assert.Empty(t, n.Sent())
		})
	}

	t.Run("requires seating", func(t *testing.T) {
		snap, _ := table(t)
		snap.Seating = []models.Seat{}
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		_, err := svc.AssignRoles(context.Background(), snap.ID, standard())
		assert.ErrorIs(t, err, ErrSeatingRequired)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("missing game", func(t *testing.T) {
		snap, _ := table(t)
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		_, err := svc.AssignRoles(context.Background(), uuid.New(), standard())
		assert.ErrorIs(t, err, ErrGameNotFound)
	})
}

func TestGameService_UpdateNominees(t *testing.T) {
	t.Run("duplicates collapse keeping first occurrence", func(t *testing.T) {
		snap, ids := table(t)
		repo := snapshotRepo(snap)
		var stored []uuid.UUID
		repo.ReplaceNomineesFunc = func(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) ([]models.Nominee, error) {
			stored = playerIDs
			return []models.Nominee{}, nil
		}
		svc, n, _ := newTestGameService(repo)

		_, err := svc.UpdateNominees(context.Background(), snap.ID, []uuid.UUID{ids[4], ids[2], ids[4], ids[7]})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ids[4], ids[2], ids[7]}, stored)
		assert.Equal(t, []notification{{GameID: snap.ID, Event: "game_updated", Kind: UpdateNominees}}, n.Sent())
	})

	t.Run("empty list clears nominees", func(t *testing.T) {
		snap, _ := table(t)
		repo := snapshotRepo(snap)
		svc, _, _ := newTestGameService(repo)

		nominees, err := svc.UpdateNominees(context.Background(), snap.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, nominees)
		assert.Contains(t, repo.Trace(), "ReplaceNominees")
	})

	t.Run("player not at the table", func(t *testing.T) {
		snap, _ := table(t)
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		_, err := svc.UpdateNominees(context.Background(), snap.ID, []uuid.UUID{uuid.New()})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("player already out", func(t *testing.T) {
		snap, ids := table(t)
		snap.Rounds = []models.Round{{GameID: snap.ID, RoundNumber: 1, MafiaKillPlayerID: &ids[3], VotedOutPlayers: []uuid.UUID{}, NobodyVotedOut: true}}
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		_, err := svc.UpdateNominees(context.Background(), snap.ID, []uuid.UUID{ids[3]})
		require.Error(t, err)
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "player_ids", ve.Field)
	})
}

func TestGameService_SaveRound(t *testing.T) {
	ctx := context.Background()

	t.Run("voted out list is deduplicated and nobody flag derived", func(t *testing.T) {
		snap, ids := table(t)
		svc, n, _ := newTestGameService(snapshotRepo(snap))

		round, err := svc.SaveRound(ctx, snap.ID, RoundInput{
			RoundNumber:          1,
			MafiaKillPlayerID:    uuidPtr(ids[0]),
			DonCheckPlayerID:     uuidPtr(ids[8]),
			SheriffCheckPlayerID: uuidPtr(ids[3]),
			VotedOutPlayers:      []uuid.UUID{ids[5], ids[5], ids[6]},
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ids[5], ids[6]}, round.VotedOutPlayers)
		assert.False(t, round.NobodyVotedOut)
		assert.Equal(t, []notification{{GameID: snap.ID, Event: "game_updated", Kind: UpdateRound}}, n.Sent())
	})

	t.Run("empty vote means nobody voted out", func(t *testing.T) {
		snap, _ := table(t)
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		round, err := svc.SaveRound(ctx, snap.ID, RoundInput{RoundNumber: 1, MafiaMiss: true})
		require.NoError(t, err)
		assert.True(t, round.NobodyVotedOut)
		assert.NotNil(t, round.VotedOutPlayers)
		assert.Nil(t, round.KilledPlayer())
	})

	t.Run("editing an earlier round is not blocked by later eliminations", func(t *testing.T) {
		snap, ids := table(t)
		snap.Rounds = []models.Round{
			{GameID: snap.ID, RoundNumber: 1, MafiaKillPlayerID: &ids[0], VotedOutPlayers: []uuid.UUID{ids[1]}},
			{GameID: snap.ID, RoundNumber: 2, MafiaKillPlayerID: &ids[2], VotedOutPlayers: []uuid.UUID{}, NobodyVotedOut: true},
		}
		// Выбывших позже игроков ещё и сняли с игры флагом.
		snap.Seating[1].IsEliminated = true
		snap.Seating[2].IsEliminated = true
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		round, err := svc.SaveRound(ctx, snap.ID, RoundInput{
			RoundNumber:       1,
			MafiaKillPlayerID: uuidPtr(ids[0]),
			VotedOutPlayers:   []uuid.UUID{ids[1]},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, round.RoundNumber)

		// А ранее не упомянутого выбывшего игрока в раунд 1 добавить нельзя.
		_, err = svc.SaveRound(ctx, snap.ID, RoundInput{
			RoundNumber:       1,
			MafiaKillPlayerID: uuidPtr(ids[0]),
			VotedOutPlayers:   []uuid.UUID{ids[1], ids[2]},
		})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	invalidCases := []struct {
		name  string
		input func(ids []uuid.UUID) RoundInput
		field string
	}{
		{
			name:  "round number below one",
			input: func(ids []uuid.UUID) RoundInput { return RoundInput{RoundNumber: 0} },
			field: "round_number",
		},
		{
			name: "kill together with miss",
			input: func(ids []uuid.UUID) RoundInput {
				return RoundInput{RoundNumber: 2, MafiaMiss: true, MafiaKillPlayerID: uuidPtr(ids[4])}
			},
			field: "mafia_kill_player_id",
		},
		{
			name: "nobody flag contradicts the list",
			input: func(ids []uuid.UUID) RoundInput {
				return RoundInput{RoundNumber: 2, VotedOutPlayers: []uuid.UUID{ids[4]}, NobodyVotedOut: boolPtr(true)}
			},
			field: "nobody_voted_out",
		},
		{
			name: "target not seated",
			input: func(ids []uuid.UUID) RoundInput {
				return RoundInput{RoundNumber: 2, SheriffCheckPlayerID: uuidPtr(uuid.New())}
			},
			field: "sheriff_check_player_id",
		},
		{
			name: "target killed in an earlier round",
			input: func(ids []uuid.UUID) RoundInput {
				return RoundInput{RoundNumber: 2, MafiaKillPlayerID: uuidPtr(ids[0])}
			},
			field: "mafia_kill_player_id",
		},
		{
			name: "target voted out in an earlier round",
			input: func(ids []uuid.UUID) RoundInput {
				return RoundInput{RoundNumber: 2, DonCheckPlayerID: uuidPtr(ids[1])}
			},
			field: "don_check_player_id",
		},
	}
	for _, tc := range invalidCases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			snap, ids := table(t)
			snap.Rounds = []models.Round{
				{GameID: snap.ID, RoundNumber: 1, MafiaKillPlayerID: &ids[0], VotedOutPlayers: []uuid.UUID{ids[1]}},
			}
			repo := snapshotRepo(snap)
			svc, n, m := newTestGameService(repo)

			_, err := svc.SaveRound(ctx, snap.ID, tc.input(ids))
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, ve.Field)
			assert.NotContains(t, repo.Trace(), "UpsertRound")
			assert.Empty(t, n.Sent())
			assert.Equal(t, 1.0, commandCount(t, m, "save_round", "invalid"))
		})
	}

	t.Run("repository failure is reported as error outcome", func(t *testing.T) {
		snap, _ := table(t)
		repo := snapshotRepo(snap)
		boom := errors.New("connection reset")
		repo.UpsertRoundFunc = func(ctx context.Context, gameID uuid.UUID, round *models.Round) (*models.Round, error) {
			return nil, boom
		}
		svc, n, m := newTestGameService(repo)

		_, err := svc.SaveRound(ctx, snap.ID, RoundInput{RoundNumber: 1})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, n.Sent())
		assert.Equal(t, 1.0, commandCount(t, m, "save_round", "error"))
	})
}

func TestGameService_DeleteRound(t *testing.T) {
	gameID := uuid.New()
	repo := &FakeGameRepository{
		DeleteRoundFunc: func(ctx context.Context, id uuid.UUID, roundNumber int) error {
			if roundNumber == 3 {
				return repositories.ErrRoundNotFound
			}
			return nil
		},
	}
	svc, n, _ := newTestGameService(repo)

	require.NoError(t, svc.DeleteRound(context.Background(), gameID, 1))
	assert.ErrorIs(t, svc.DeleteRound(context.Background(), gameID, 3), ErrRoundNotFound)
	assert.ErrorIs(t, svc.DeleteRound(context.Background(), gameID, 0), ErrValidationFailed)
	assert.Equal(t, []notification{{GameID: gameID, Event: "game_updated", Kind: UpdateRoundDelete}}, n.Sent())
}

func TestGameService_SetBestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("first killed comes from round 1 once it exists", func(t *testing.T) {
		snap, ids := table(t)
		snap.Rounds = []models.Round{{GameID: snap.ID, RoundNumber: 1, MafiaKillPlayerID: &ids[2], VotedOutPlayers: []uuid.UUID{}, NobodyVotedOut: true}}
		svc, n, _ := newTestGameService(snapshotRepo(snap))

		res, err := svc.SetBestMove(ctx, snap.ID, BestMoveInput{
			FirstKilledPlayerID: uuidPtr(ids[5]),
			Suspect1:            uuidPtr(ids[0]),
			Suspect2:            uuidPtr(ids[1]),
			Suspect3:            uuidPtr(ids[3]),
		})
		require.NoError(t, err)
		require.NotNil(t, res.BestMove.FirstKilledPlayerID)
		assert.Equal(t, ids[2], *res.BestMove.FirstKilledPlayerID)
		assert.Equal(t, []string{"first killed player is taken from round 1"}, res.Warnings)
		assert.Equal(t, []notification{{GameID: snap.ID, Event: "game_updated", Kind: UpdateBestMove}}, n.Sent())
	})

	t.Run("miss in round 1 leaves first killed empty", func(t *testing.T) {
		snap, ids := table(t)
		snap.Rounds = []models.Round{{GameID: snap.ID, RoundNumber: 1, MafiaMiss: true, VotedOutPlayers: []uuid.UUID{}, NobodyVotedOut: true}}
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		res, err := svc.SetBestMove(ctx, snap.ID, BestMoveInput{
			Suspect1: uuidPtr(ids[0]),
			Suspect2: uuidPtr(ids[1]),
			Suspect3: uuidPtr(ids[3]),
		})
		require.NoError(t, err)
		assert.Nil(t, res.BestMove.FirstKilledPlayerID)
		assert.Empty(t, res.Warnings)
	})

	t.Run("request value is used before round 1", func(t *testing.T) {
		snap, ids := table(t)
		svc, _, _ := newTestGameService(snapshotRepo(snap))

		res, err := svc.SetBestMove(ctx, snap.ID, BestMoveInput{
			FirstKilledPlayerID: uuidPtr(ids[9]),
			Suspect1:            uuidPtr(ids[0]),
			Suspect2:            uuidPtr(ids[9]),
			Suspect3:            uuidPtr(ids[3]),
		})
		require.NoError(t, err)
		assert.Equal(t, ids[9], *res.BestMove.FirstKilledPlayerID)
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "own suspects")
	})

	invalidCases := []struct {
		name  string
		input func(ids []uuid.UUID) BestMoveInput
	}{
		{name: "missing suspect", input: func(ids []uuid.UUID) BestMoveInput {
			return BestMoveInput{Suspect1: uuidPtr(ids[0]), Suspect2: uuidPtr(ids[1])}
		}},
		{name: "repeated suspect", input: func(ids []uuid.UUID) BestMoveInput {
			return BestMoveInput{Suspect1: uuidPtr(ids[0]), Suspect2: uuidPtr(ids[1]), Suspect3: uuidPtr(ids[0])}
		}},
		{name: "suspect not seated", input: func(ids []uuid.UUID) BestMoveInput {
			return BestMoveInput{Suspect1: uuidPtr(ids[0]), Suspect2: uuidPtr(ids[1]), Suspect3: uuidPtr(uuid.New())}
		}},
		{name: "first killed not seated", input: func(ids []uuid.UUID) BestMoveInput {
			return BestMoveInput{
				FirstKilledPlayerID: uuidPtr(uuid.New()),
				Suspect1:            uuidPtr(ids[0]), Suspect2: uuidPtr(ids[1]), Suspect3: uuidPtr(ids[2]),
			}
		}},
	}
	for _, tc := range invalidCases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			snap, ids := table(t)
			repo := snapshotRepo(snap)
			svc, _, _ := newTestGameService(repo)

			_, err := svc.SetBestMove(ctx, snap.ID, tc.input(ids))
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.NotContains(t, repo.Trace(), "UpsertBestMove")
		})
	}
}

func TestGameService_SeatCommands(t *testing.T) {
	ctx := context.Background()
	gameID, playerID := uuid.New(), uuid.New()

	t.Run("elimination", func(t *testing.T) {
		svc, n, _ := newTestGameService(&FakeGameRepository{})
		seat, err := svc.SetElimination(ctx, gameID, playerID, true)
		require.NoError(t, err)
		assert.True(t, seat.IsEliminated)
		assert.Equal(t, []notification{{GameID: gameID, Event: "game_updated", Kind: UpdateElimination}}, n.Sent())
	})

	t.Run("elimination of a player not at the table", func(t *testing.T) {
		repo := &FakeGameRepository{
			SetEliminationFunc: func(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (*models.Seat, error) {
				return nil, repositories.ErrSeatNotFound
			},
		}
		svc, n, _ := newTestGameService(repo)
		_, err := svc.SetElimination(ctx, gameID, playerID, true)
		assert.ErrorIs(t, err, ErrSeatNotFound)
		assert.Empty(t, n.Sent())
	})

	t.Run("card", func(t *testing.T) {
		svc, n, _ := newTestGameService(&FakeGameRepository{})
		seat, err := svc.SetCard(ctx, gameID, playerID, models.CardYellow)
		require.NoError(t, err)
		assert.Equal(t, models.CardYellow, seat.Card)
		assert.Len(t, n.Sent(), 1)
	})

	t.Run("unknown card", func(t *testing.T) {
		repo := &FakeGameRepository{}
		svc, _, _ := newTestGameService(repo)
		_, err := svc.SetCard(ctx, gameID, playerID, "green")
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Empty(t, repo.Trace())
	})
}

func TestGameService_OverlayAndStatus(t *testing.T) {
	ctx := context.Background()
	gameID := uuid.New()
	svc, n, _ := newTestGameService(&FakeGameRepository{})

	game, err := svc.SetOverlayHidden(ctx, gameID, true)
	require.NoError(t, err)
	assert.True(t, game.OverlayHidden)

	game, err = svc.SetStatus(ctx, gameID, models.GameStatusFinished)
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusFinished, game.Status)

	_, err = svc.SetStatus(ctx, gameID, "paused")
	assert.ErrorIs(t, err, ErrValidationFailed)

	kinds := make([]string, 0)
	for _, s := range n.Sent() {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []string{UpdateOverlay, UpdateStatus}, kinds)
}

func TestGameService_Snapshots(t *testing.T) {
	ctx := context.Background()
	snap, _ := table(t)
	repo := snapshotRepo(snap)
	repo.FindGameIDFunc = func(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (uuid.UUID, error) {
		if tournamentID == snap.TournamentID && gameNumber == snap.GameNumber {
			return snap.ID, nil
		}
		return uuid.Nil, repositories.ErrGameNotFound
	}
	svc, _, _ := newTestGameService(repo)

	got, err := svc.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("GetSnapshot mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.GetSnapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrGameNotFound)

	got, err = svc.FindSnapshot(ctx, snap.TournamentID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)

	_, err = svc.FindSnapshot(ctx, snap.TournamentID, 7, nil)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGameService_CreateGame(t *testing.T) {
	ctx := context.Background()
	tournamentID := uuid.New()

	t.Run("defaults to the first table", func(t *testing.T) {
		svc, n, _ := newTestGameService(&FakeGameRepository{})
		game, err := svc.CreateGame(ctx, CreateGameInput{TournamentID: tournamentID, GameNumber: 3})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, game.ID)
		assert.Equal(t, 1, game.TableNumber)
		assert.Equal(t, models.GameStatusPending, game.Status)
		assert.Empty(t, n.Sent())
	})

	t.Run("duplicate number at the table", func(t *testing.T) {
		repo := &FakeGameRepository{
			CreateFunc: func(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
				return repositories.ErrGameConflict
			},
		}
		svc, _, _ := newTestGameService(repo)
		_, err := svc.CreateGame(ctx, CreateGameInput{TournamentID: tournamentID, GameNumber: 1, TableNumber: 2})
		assert.ErrorIs(t, err, ErrGameConflict)
	})

	t.Run("validation", func(t *testing.T) {
		svc, _, _ := newTestGameService(&FakeGameRepository{})
		_, err := svc.CreateGame(ctx, CreateGameInput{GameNumber: 1})
		assert.ErrorIs(t, err, ErrValidationFailed)
		_, err = svc.CreateGame(ctx, CreateGameInput{TournamentID: tournamentID})
		assert.ErrorIs(t, err, ErrValidationFailed)
		_, err = svc.CreateGame(ctx, CreateGameInput{TournamentID: tournamentID, GameNumber: 1, TableNumber: -1})
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestGameService_NilNotifierAndMetrics(t *testing.T) {
	snap, ids := table(t)
	svc := NewGameService(snapshotRepo(snap), nil, nil, nil)

	_, err := svc.UpdateNominees(context.Background(), snap.ID, []uuid.UUID{ids[0]})
	assert.NoError(t, err)
}
