package services

import (
	"context"
	"sync"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/Dosada05/mafia-overlay/repositories"
	"github.com/google/uuid"
)

// ------------------------
// Fake Game Repo
// ------------------------

// FakeGameRepository provides a programmable stub for repositories.GameRepository.
// Unset funcs return zero values.
type FakeGameRepository struct {
	trace []string

	CreateFunc           func(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error
	GetByIDFunc          func(ctx context.Context, id uuid.UUID) (*models.Game, error)
	FindGameIDFunc       func(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (uuid.UUID, error)
	ListByTournamentFunc func(ctx context.Context, tournamentID uuid.UUID) ([]models.Game, error)
	LoadSnapshotFunc     func(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error)

	ReplaceSeatingFunc   func(ctx context.Context, gameID uuid.UUID, seats []models.SeatAssignment) error
	ClearSeatingFunc     func(ctx context.Context, gameID uuid.UUID) error
	ApplyRolesFunc       func(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) error
	SetEliminationFunc   func(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (*models.Seat, error)
	SetCardFunc          func(ctx context.Context, gameID, playerID uuid.UUID, card models.Card) (*models.Seat, error)
	ReplaceNomineesFunc  func(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) ([]models.Nominee, error)
	UpsertRoundFunc      func(ctx context.Context, gameID uuid.UUID, round *models.Round) (*models.Round, error)
	DeleteRoundFunc      func(ctx context.Context, gameID uuid.UUID, roundNumber int) error
	UpsertBestMoveFunc   func(ctx context.Context, gameID uuid.UUID, bestMove *models.BestMove) (*models.BestMove, error)
	SetOverlayHiddenFunc func(ctx context.Context, gameID uuid.UUID, hidden bool) (*models.Game, error)
	SetGameStatusFunc    func(ctx context.Context, gameID uuid.UUID, status models.GameStatus) (*models.Game, error)
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeGameRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeGameRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeGameRepository) Create(ctx context.Context, exec repositories.SQLExecutor, game *models.Game) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, exec, game)
	}
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	return nil
}

func (f *FakeGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return &models.Game{ID: id}, nil
}

func (f *FakeGameRepository) FindGameID(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (uuid.UUID, error) {
	f.record("FindGameID")
	if f.FindGameIDFunc != nil {
		return f.FindGameIDFunc(ctx, tournamentID, gameNumber, tableNumber)
	}
	return uuid.Nil, repositories.ErrGameNotFound
}

func (f *FakeGameRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Game, error) {
	f.record("ListByTournament")
	if f.ListByTournamentFunc != nil {
		return f.ListByTournamentFunc(ctx, tournamentID)
	}
	return []models.Game{}, nil
}

func (f *FakeGameRepository) LoadSnapshot(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error) {
	f.record("LoadSnapshot")
	if f.LoadSnapshotFunc != nil {
		return f.LoadSnapshotFunc(ctx, gameID)
	}
	return nil, repositories.ErrGameNotFound
}

func (f *FakeGameRepository) ReplaceSeating(ctx context.Context, gameID uuid.UUID, seats []models.SeatAssignment) error {
	f.record("ReplaceSeating")
	if f.ReplaceSeatingFunc != nil {
		return f.ReplaceSeatingFunc(ctx, gameID, seats)
	}
	return nil
}

func (f *FakeGameRepository) ClearSeating(ctx context.Context, gameID uuid.UUID) error {
	f.record("ClearSeating")
	if f.ClearSeatingFunc != nil {
		return f.ClearSeatingFunc(ctx, gameID)
	}
	return nil
}

func (f *FakeGameRepository) ApplyRoles(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) error {
	f.record("ApplyRoles")
	if f.ApplyRolesFunc != nil {
		return f.ApplyRolesFunc(ctx, gameID, roles)
	}
	return nil
}

func (f *FakeGameRepository) SetElimination(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (*models.Seat, error) {
	f.record("SetElimination")
	if f.SetEliminationFunc != nil {
		return f.SetEliminationFunc(ctx, gameID, playerID, eliminated)
	}
	return &models.Seat{GameID: gameID, PlayerID: playerID, IsEliminated: eliminated}, nil
}

func (f *FakeGameRepository) SetCard(ctx context.Context, gameID, playerID uuid.UUID, card models.Card) (*models.Seat, error) {
	f.record("SetCard")
	if f.SetCardFunc != nil {
		return f.SetCardFunc(ctx, gameID, playerID, card)
	}
	return &models.Seat{GameID: gameID, PlayerID: playerID, Card: card}, nil
}

func (f *FakeGameRepository) ReplaceNominees(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) ([]models.Nominee, error) {
	f.record("ReplaceNominees")
	if f.ReplaceNomineesFunc != nil {
		return f.ReplaceNomineesFunc(ctx, gameID, playerIDs)
	}
	out := make([]models.Nominee, 0, len(playerIDs))
	for _, id := range playerIDs {
		out = append(out, models.Nominee{GameID: gameID, PlayerID: id})
	}
	return out, nil
}

func (f *FakeGameRepository) UpsertRound(ctx context.Context, gameID uuid.UUID, round *models.Round) (*models.Round, error) {
	f.record("UpsertRound")
	if f.UpsertRoundFunc != nil {
		return f.UpsertRoundFunc(ctx, gameID, round)
	}
	return round, nil
}

func (f *FakeGameRepository) DeleteRound(ctx context.Context, gameID uuid.UUID, roundNumber int) error {
	f.record("DeleteRound")
	if f.DeleteRoundFunc != nil {
		return f.DeleteRoundFunc(ctx, gameID, roundNumber)
	}
	return nil
}

func (f *FakeGameRepository) UpsertBestMove(ctx context.Context, gameID uuid.UUID, bestMove *models.BestMove) (*models.BestMove, error) {
	f.record("UpsertBestMove")
	if f.UpsertBestMoveFunc != nil {
		return f.UpsertBestMoveFunc(ctx, gameID, bestMove)
	}
	return bestMove, nil
}

func (f *FakeGameRepository) SetOverlayHidden(ctx context.Context, gameID uuid.UUID, hidden bool) (*models.Game, error) {
	f.record("SetOverlayHidden")
	if f.SetOverlayHiddenFunc != nil {
		return f.SetOverlayHiddenFunc(ctx, gameID, hidden)
	}
	return &models.Game{ID: gameID, OverlayHidden: hidden}, nil
}

func (f *FakeGameRepository) SetGameStatus(ctx context.Context, gameID uuid.UUID, status models.GameStatus) (*models.Game, error) {
	f.record("SetGameStatus")
	if f.SetGameStatusFunc != nil {
		return f.SetGameStatusFunc(ctx, gameID, status)
	}
	return &models.Game{ID: gameID, Status: status}, nil
}

// ------------------------
// Fake Notifier
// ------------------------

type notification struct {
	GameID    uuid.UUID
	Event     string
	Kind      string
	Positions []int
}

// FakeNotifier records every signal in order.
type FakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *FakeNotifier) NotifyGameUpdated(gameID uuid.UUID, kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{GameID: gameID, Event: "game_updated", Kind: kind})
}

func (n *FakeNotifier) NotifyRolesChanged(gameID uuid.UUID, positions []int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{GameID: gameID, Event: "roles_changed", Positions: positions})
}

func (n *FakeNotifier) Sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.sent))
	copy(out, n.sent)
	return out
}

// ------------------------
// Fake Tournament Repo
// ------------------------

// FakeTournamentRepository stubs repositories.TournamentRepository. Unset funcs succeed.
type FakeTournamentRepository struct {
	CreateFunc       func(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListFunc         func(ctx context.Context) ([]models.Tournament, error)
	UpdateFunc       func(ctx context.Context, id uuid.UUID, patch repositories.TournamentPatch) (*models.Tournament, error)
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
	ListPlayersFunc  func(ctx context.Context, tournamentID uuid.UUID) ([]models.RosterEntry, error)
	AddPlayersFunc   func(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) error
	RemovePlayerFunc func(ctx context.Context, tournamentID, playerID uuid.UUID) error
}

func (f *FakeTournamentRepository) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, exec, t)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (f *FakeTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *FakeTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx)
	}
	return []models.Tournament{}, nil
}

func (f *FakeTournamentRepository) Update(ctx context.Context, id uuid.UUID, patch repositories.TournamentPatch) (*models.Tournament, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, patch)
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *FakeTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, id)
	}
	return nil
}

func (f *FakeTournamentRepository) ListPlayers(ctx context.Context, tournamentID uuid.UUID) ([]models.RosterEntry, error) {
	if f.ListPlayersFunc != nil {
		return f.ListPlayersFunc(ctx, tournamentID)
	}
	return []models.RosterEntry{}, nil
}

func (f *FakeTournamentRepository) AddPlayers(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) error {
	if f.AddPlayersFunc != nil {
		return f.AddPlayersFunc(ctx, tournamentID, playerIDs)
	}
	return nil
}

func (f *FakeTournamentRepository) RemovePlayer(ctx context.Context, tournamentID, playerID uuid.UUID) error {
	if f.RemovePlayerFunc != nil {
		return f.RemovePlayerFunc(ctx, tournamentID, playerID)
	}
	return nil
}

// ------------------------
// Fake Transactor
// ------------------------

// FakeTransactor runs fn without a database and records whether the work would commit.
type FakeTransactor struct {
	Commits   int
	Rollbacks int
}

func (f *FakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	if err := fn(nil); err != nil {
		f.Rollbacks++
		return err
	}
	f.Commits++
	return nil
}

// Ensure the fakes satisfy the interfaces.
var (
	_ repositories.GameRepository       = (*FakeGameRepository)(nil)
	_ repositories.TournamentRepository = (*FakeTournamentRepository)(nil)
	_ repositories.Transactor           = (*FakeTransactor)(nil)
	_ GameNotifier                      = (*FakeNotifier)(nil)
)
