package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/Dosada05/mafia-overlay/repositories"
	"github.com/google/uuid"
)

var (
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrTournamentInvalidSize  = errors.New("total games and total tables must be positive")
	ErrTournamentCreateFailed = errors.New("failed to create tournament")
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id uuid.UUID, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id uuid.UUID) error

	ListPlayers(ctx context.Context, tournamentID uuid.UUID) ([]models.RosterEntry, error)
	AddPlayers(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) ([]models.RosterEntry, error)
	RemovePlayer(ctx context.Context, tournamentID, playerID uuid.UUID) error
	ListGames(ctx context.Context, tournamentID uuid.UUID) ([]models.Game, error)
}

type CreateTournamentInput struct {
	Name        string `json:"name"`
	TotalGames  int    `json:"total_games"`
	TotalTables int    `json:"total_tables"`
}

type UpdateTournamentInput struct {
	Name        *string                  `json:"name"`
	TotalGames  *int                     `json:"total_games"`
	TotalTables *int                     `json:"total_tables"`
	Status      *models.TournamentStatus `json:"status"`
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	gameRepo       repositories.GameRepository
	logger         *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		gameRepo:       gameRepo,
		logger:         logger.With(slog.String("service", "tournament")),
	}
}

// CreateTournament создаёт турнир и сразу все его игры: по одной на каждую пару (стол, номер игры).
func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.TotalTables == 0 {
		input.TotalTables = 1
	}
	if input.TotalGames < 1 || input.TotalTables < 1 {
		return nil, ErrTournamentInvalidSize
	}

	t := &models.Tournament{
		Name:        name,
		TotalGames:  input.TotalGames,
		TotalTables: input.TotalTables,
		Status:      models.StatusActive,
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, t); err != nil {
			return err
		}
		t.Games = make([]models.Game, 0, t.TotalTables*t.TotalGames)
		for table := 1; table <= t.TotalTables; table++ {
			for number := 1; number <= t.TotalGames; number++ {
				g := models.Game{
					TournamentID: t.ID,
					GameNumber:   number,
					TableNumber:  table,
					Status:       models.GameStatusPending,
				}
				if err := s.gameRepo.Create(ctx, exec, &g); err != nil {
					return fmt.Errorf("game %d at table %d: %w", number, table, err)
				}
				t.Games = append(t.Games, g)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTournamentCreateFailed, err)
	}

	s.logger.InfoContext(ctx, "Tournament created",
		slog.String("tournament_id", t.ID.String()), slog.Int("games", len(t.Games)))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	list, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return list, nil
}

// UpdateTournament меняет только переданные поля. Уже созданные игры не пересоздаются.
func (s *tournamentService) UpdateTournament(ctx context.Context, id uuid.UUID, input UpdateTournamentInput) (*models.Tournament, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTournamentNameRequired
		}
		input.Name = &name
	}
	if (input.TotalGames != nil && *input.TotalGames < 1) || (input.TotalTables != nil && *input.TotalTables < 1) {
		return nil, ErrTournamentInvalidSize
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, invalid("status", "must be active or finished")
	}

	t, err := s.tournamentRepo.Update(ctx, id, repositories.TournamentPatch{
		Name:        input.Name,
		TotalGames:  input.TotalGames,
		TotalTables: input.TotalTables,
		Status:      input.Status,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}
	return nil
}

func (s *tournamentService) ListPlayers(ctx context.Context, tournamentID uuid.UUID) ([]models.RosterEntry, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	entries, err := s.tournamentRepo.ListPlayers(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster of %s: %w", tournamentID, err)
	}
	return entries, nil
}

func (s *tournamentService) AddPlayers(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) ([]models.RosterEntry, error) {
	if len(playerIDs) == 0 {
		return nil, invalid("player_ids", "at least one player is required")
	}
	if err := s.tournamentRepo.AddPlayers(ctx, tournamentID, playerIDs); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrRosterPlayerNotFound):
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to add players to %s: %w", tournamentID, err)
	}
	return s.ListPlayers(ctx, tournamentID)
}

func (s *tournamentService) RemovePlayer(ctx context.Context, tournamentID, playerID uuid.UUID) error {
	if err := s.tournamentRepo.RemovePlayer(ctx, tournamentID, playerID); err != nil {
		if errors.Is(err, repositories.ErrRosterEntryNotFound) {
			return ErrRosterNotFound
		}
		return fmt.Errorf("failed to remove player %s from %s: %w", playerID, tournamentID, err)
	}
	return nil
}

func (s *tournamentService) ListGames(ctx context.Context, tournamentID uuid.UUID) ([]models.Game, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	games, err := s.gameRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of %s: %w", tournamentID, err)
	}
	return games, nil
}
