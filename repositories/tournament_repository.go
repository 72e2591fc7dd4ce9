package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/google/uuid"
)

var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrRosterEntryNotFound  = errors.New("player is not in the tournament roster")
	ErrRosterPlayerNotFound = errors.New("invalid player reference")
)

// TournamentPatch - частичное обновление турнира; nil поля не меняются.
type TournamentPatch struct {
	Name        *string
	TotalGames  *int
	TotalTables *int
	Status      *models.TournamentStatus
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Update(ctx context.Context, id uuid.UUID, patch TournamentPatch) (*models.Tournament, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListPlayers(ctx context.Context, tournamentID uuid.UUID) ([]models.RosterEntry, error)
	AddPlayers(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) error
	RemovePlayer(ctx context.Context, tournamentID, playerID uuid.UUID) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, total_games, total_tables, status, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(&t.ID, &t.Name, &t.TotalGames, &t.TotalTables, &t.Status, &t.CreatedAt)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusActive
	}
	query := `
		INSERT INTO tournaments (id, name, total_games, total_tables, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query, t.ID, t.Name, t.TotalGames, t.TotalTables, t.Status).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, id uuid.UUID, patch TournamentPatch) (*models.Tournament, error) {
	query := `
		UPDATE tournaments SET
			name = COALESCE($2, name),
			total_games = COALESCE($3, total_games),
			total_tables = COALESCE($4, total_tables),
			status = COALESCE($5, status)
		WHERE id = $1
		RETURNING ` + tournamentColumns

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id, patch.Name, patch.TotalGames, patch.TotalTables, patch.Status), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete удаляет турнир каскадом вместе с играми и составом.
func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListPlayers(ctx context.Context, tournamentID uuid.UUID) ([]models.RosterEntry, error) {
	query := `
		SELECT tp.id, p.id, p.nickname, p.photo_url, p.created_at
		FROM tournament_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.tournament_id = $1
		ORDER BY p.nickname`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.RosterEntry, 0)
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.TournamentPlayerID, &e.ID, &e.Nickname, &e.PhotoURL, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddPlayers добавляет игроков в состав; уже добавленные пропускаются.
func (r *postgresTournamentRepository) AddPlayers(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	return runInTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tournament_players (id, tournament_id, player_id) VALUES ($1, $2, $3)
			ON CONFLICT (tournament_id, player_id) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare roster insert: %w", err)
		}
		defer stmt.Close()

		for _, playerID := range playerIDs {
			if _, err := stmt.ExecContext(ctx, uuid.New(), tournamentID, playerID); err != nil {
				return r.handleRosterError(err)
			}
		}
		return nil
	})
}

func (r *postgresTournamentRepository) RemovePlayer(ctx context.Context, tournamentID, playerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`, tournamentID, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRosterEntryNotFound)
}

func (r *postgresTournamentRepository) handleRosterError(err error) error {
	pqErr, ok := pqError(err)
	if !ok || pqErr.Code != pqForeignKeyViolation {
		return err
	}
	switch pqErr.Constraint {
	case "tournament_players_tournament_id_fkey":
		return ErrTournamentNotFound
	case "tournament_players_player_id_fkey":
		return ErrRosterPlayerNotFound
	}
	return fmt.Errorf("database foreign key error: %w", err)
}
