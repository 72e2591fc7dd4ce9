package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/mafia-overlay/metrics"
	"github.com/Dosada05/mafia-overlay/models"
	"github.com/Dosada05/mafia-overlay/repositories"
	"github.com/google/uuid"
)

// Типы изменений, которые уходят подписчикам комнаты вместе с game_updated.
const (
	UpdateSeating     = "seating_updated"
	UpdateRoles       = "roles_updated"
	UpdateElimination = "player_eliminated"
	UpdateCard        = "card_updated"
	UpdateNominees    = "nominees_updated"
	UpdateRound       = "round_added"
	UpdateRoundDelete = "round_deleted"
	UpdateBestMove    = "best_move_set"
	UpdateOverlay     = "overlay_toggled"
	UpdateStatus      = "status_changed"
)

// GameNotifier рассылает сигналы инвалидации зрителям игры. Ошибки доставки не возвращаются.
type GameNotifier interface {
	NotifyGameUpdated(gameID uuid.UUID, kind string)
	NotifyRolesChanged(gameID uuid.UUID, positions []int)
}

type GameService interface {
	GetSnapshot(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error)
	FindSnapshot(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (*models.GameSnapshot, error)
	CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error)

	AssignSeating(ctx context.Context, gameID uuid.UUID, seats []models.SeatAssignment) error
	ClearSeating(ctx context.Context, gameID uuid.UUID) error
	AssignRoles(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) (*RolesResult, error)
	SetElimination(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (*models.Seat, error)
	SetCard(ctx context.Context, gameID, playerID uuid.UUID, card models.Card) (*models.Seat, error)
	UpdateNominees(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) ([]models.Nominee, error)
	SaveRound(ctx context.Context, gameID uuid.UUID, input RoundInput) (*models.Round, error)
	DeleteRound(ctx context.Context, gameID uuid.UUID, roundNumber int) error
	SetBestMove(ctx context.Context, gameID uuid.UUID, input BestMoveInput) (*BestMoveResult, error)
	SetOverlayHidden(ctx context.Context, gameID uuid.UUID, hidden bool) (*models.Game, error)
	SetStatus(ctx context.Context, gameID uuid.UUID, status models.GameStatus) (*models.Game, error)
}

type CreateGameInput struct {
	TournamentID uuid.UUID `json:"tournament_id"`
	GameNumber   int       `json:"game_number"`
	TableNumber  int       `json:"table_number"`
	SeriesName   *string   `json:"series_name"`
}

type RolesResult struct {
	ChangedPositions []int
	Warnings         []string
}

type BestMoveResult struct {
	BestMove *models.BestMove
	Warnings []string
}

type gameService struct {
	gameRepo repositories.GameRepository
	notifier GameNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewGameService(gameRepo repositories.GameRepository, notifier GameNotifier, m *metrics.Metrics, logger *slog.Logger) GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &gameService{
		gameRepo: gameRepo,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With(slog.String("service", "game")),
	}
}

// observe пишет метрику и лог по результату команды.
func (s *gameService) observe(ctx context.Context, command string, gameID uuid.UUID, started time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrValidationFailed):
		outcome = "invalid"
	case errors.Is(err, ErrGameNotFound), errors.Is(err, ErrSeatNotFound), errors.Is(err, ErrRoundNotFound),
		errors.Is(err, ErrPlayerNotFound):
		outcome = "invalid"
	default:
		outcome = "error"
		s.logger.ErrorContext(ctx, "Game command failed",
			slog.String("command", command), slog.String("game_id", gameID.String()), slog.Any("error", err))
	}
	s.metrics.ObserveCommand(command, outcome, started)
}

func (s *gameService) notify(gameID uuid.UUID, kind string) {
	if s.notifier != nil {
		s.notifier.NotifyGameUpdated(gameID, kind)
	}
}

// loadForCommand читает снапшот для проверки команды.
func (s *gameService) loadForCommand(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error) {
	snap, err := s.gameRepo.LoadSnapshot(ctx, gameID)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	return snap, nil
}

func mapGameRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrGameNotFound):
		return ErrGameNotFound
	case errors.Is(err, repositories.ErrSeatNotFound):
		return ErrSeatNotFound
	case errors.Is(err, repositories.ErrRoundNotFound):
		return ErrRoundNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrGameConflict):
		return ErrGameConflict
	case errors.Is(err, repositories.ErrSeatingMissing):
		return fmt.Errorf("%w: %w", ErrValidationFailed, ErrSeatingRequired)
	case errors.Is(err, repositories.ErrInvalidSeating):
		return &ValidationError{Field: "seating", Message: err.Error()}
	case errors.Is(err, repositories.ErrGamePlayerNotFound):
		return fmt.Errorf("%w: %w", ErrValidationFailed, ErrPlayerNotFound)
	}
	return err
}

func (s *gameService) GetSnapshot(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error) {
	snap, err := s.gameRepo.LoadSnapshot(ctx, gameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return snap, nil
}

func (s *gameService) FindSnapshot(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (*models.GameSnapshot, error) {
	id, err := s.gameRepo.FindGameID(ctx, tournamentID, gameNumber, tableNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to find game %d of tournament %s: %w", gameNumber, tournamentID, err)
	}
	return s.GetSnapshot(ctx, id)
}

func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput) (*models.Game, error) {
	if input.TournamentID == uuid.Nil {
		return nil, invalid("tournament_id", "is required")
	}
	if input.GameNumber < 1 {
		return nil, invalid("game_number", "must be at least 1")
	}
	if input.TableNumber == 0 {
		input.TableNumber = 1
	}
	if input.TableNumber < 1 {
		return nil, invalid("table_number", "must be at least 1")
	}

	game := &models.Game{
		TournamentID: input.TournamentID,
		GameNumber:   input.GameNumber,
		TableNumber:  input.TableNumber,
		SeriesName:   input.SeriesName,
		Status:       models.GameStatusPending,
	}
	if err := s.gameRepo.Create(ctx, nil, game); err != nil {
		return nil, mapGameRepoError(err)
	}
	return game, nil
}

func (s *gameService) AssignSeating(ctx context.Context, gameID uuid.UUID, seats []models.SeatAssignment) (err error) {
	defer func(started time.Time) { s.observe(ctx, "assign_seating", gameID, started, err) }(time.Now())

	if err := validateSeating(seats); err != nil {
		return err
	}
	if err := s.gameRepo.ReplaceSeating(ctx, gameID, seats); err != nil {
		return mapGameRepoError(err)
	}
	s.notify(gameID, UpdateSeating)
	return nil
}

func (s *gameService) ClearSeating(ctx context.Context, gameID uuid.UUID) (err error) {
	defer func(started time.Time) { s.observe(ctx, "clear_seating", gameID, started, err) }(time.Now())

	if err := s.gameRepo.ClearSeating(ctx, gameID); err != nil {
		return mapGameRepoError(err)
	}
	s.notify(gameID, UpdateSeating)
	return nil
}

func (s *gameService) AssignRoles(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) (res *RolesResult, err error) {
	defer func(started time.Time) { s.observe(ctx, "assign_roles", gameID, started, err) }(time.Now())

	snap, err := s.loadForCommand(ctx, gameID)
	if err != nil {
		return nil, err
	}
	normalized, warnings, err := normalizeRoles(snap, roles)
	if err != nil {
		return nil, err
	}
	changed := changedPositions(snap, normalized)

	if err := s.gameRepo.ApplyRoles(ctx, gameID, normalized); err != nil {
		return nil, mapGameRepoError(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyRolesChanged(gameID, changed)
	}
	s.notify(gameID, UpdateRoles)
	return &RolesResult{ChangedPositions: changed, Warnings: warnings}, nil
}

func (s *gameService) SetElimination(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (seat *models.Seat, err error) {
	defer func(started time.Time) { s.observe(ctx, "set_elimination", gameID, started, err) }(time.Now())

	seat, err = s.gameRepo.SetElimination(ctx, gameID, playerID, eliminated)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.notify(gameID, UpdateElimination)
	return seat, nil
}

func (s *gameService) SetCard(ctx context.Context, gameID, playerID uuid.UUID, card models.Card) (seat *models.Seat, err error) {
	defer func(started time.Time) { s.observe(ctx, "set_card", gameID, started, err) }(time.Now())

	if !card.Valid() {
		return nil, invalid("card", "must be one of none, yellow, red")
	}
	seat, err = s.gameRepo.SetCard(ctx, gameID, playerID, card)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.notify(gameID, UpdateCard)
	return seat, nil
}

func (s *gameService) UpdateNominees(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) (nominees []models.Nominee, err error) {
	defer func(started time.Time) { s.observe(ctx, "update_nominees", gameID, started, err) }(time.Now())

	snap, err := s.loadForCommand(ctx, gameID)
	if err != nil {
		return nil, err
	}
	ids, err := normalizeNominees(snap, playerIDs)
	if err != nil {
		return nil, err
	}
	nominees, err = s.gameRepo.ReplaceNominees(ctx, gameID, ids)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.notify(gameID, UpdateNominees)
	return nominees, nil
}

func (s *gameService) SaveRound(ctx context.Context, gameID uuid.UUID, input RoundInput) (round *models.Round, err error) {
	defer func(started time.Time) { s.observe(ctx, "save_round", gameID, started, err) }(time.Now())

	snap, err := s.loadForCommand(ctx, gameID)
	if err != nil {
		return nil, err
	}
	candidate, err := buildRound(snap, gameID, input)
	if err != nil {
		return nil, err
	}
	round, err = s.gameRepo.UpsertRound(ctx, gameID, candidate)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.logger.DebugContext(ctx, "Round saved",
		slog.String("game_id", gameID.String()), slog.Int("round_number", round.RoundNumber))
	s.notify(gameID, UpdateRound)
	return round, nil
}

func (s *gameService) DeleteRound(ctx context.Context, gameID uuid.UUID, roundNumber int) (err error) {
	defer func(started time.Time) { s.observe(ctx, "delete_round", gameID, started, err) }(time.Now())

	if roundNumber < 1 {
		return invalid("round_number", "must be at least 1")
	}
	if err := s.gameRepo.DeleteRound(ctx, gameID, roundNumber); err != nil {
		return mapGameRepoError(err)
	}
	s.notify(gameID, UpdateRoundDelete)
	return nil
}

func (s *gameService) SetBestMove(ctx context.Context, gameID uuid.UUID, input BestMoveInput) (res *BestMoveResult, err error) {
	defer func(started time.Time) { s.observe(ctx, "set_best_move", gameID, started, err) }(time.Now())

	snap, err := s.loadForCommand(ctx, gameID)
	if err != nil {
		return nil, err
	}
	candidate, warnings, err := buildBestMove(snap, gameID, input)
	if err != nil {
		return nil, err
	}
	saved, err := s.gameRepo.UpsertBestMove(ctx, gameID, candidate)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.notify(gameID, UpdateBestMove)
	return &BestMoveResult{BestMove: saved, Warnings: warnings}, nil
}

func (s *gameService) SetOverlayHidden(ctx context.Context, gameID uuid.UUID, hidden bool) (game *models.Game, err error) {
	defer func(started time.Time) { s.observe(ctx, "set_overlay", gameID, started, err) }(time.Now())

	game, err = s.gameRepo.SetOverlayHidden(ctx, gameID, hidden)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.notify(gameID, UpdateOverlay)
	return game, nil
}

func (s *gameService) SetStatus(ctx context.Context, gameID uuid.UUID, status models.GameStatus) (game *models.Game, err error) {
	defer func(started time.Time) { s.observe(ctx, "set_status", gameID, started, err) }(time.Now())

	if !status.Valid() {
		return nil, invalid("status", "must be one of pending, in_progress, finished")
	}
	game, err = s.gameRepo.SetGameStatus(ctx, gameID, status)
	if err != nil {
		return nil, mapGameRepoError(err)
	}
	s.notify(gameID, UpdateStatus)
	return game, nil
}
