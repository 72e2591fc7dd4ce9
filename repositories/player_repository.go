package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/google/uuid"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerInUse    = errors.New("player is referenced by game records")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
	Search(ctx context.Context, query string, limit int) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, nickname, photo_url, created_at`

func scanPlayer(row interface{ Scan(...interface{}) error }, p *models.Player) error {
	return row.Scan(&p.ID, &p.Nickname, &p.PhotoURL, &p.CreatedAt)
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `INSERT INTO players (id, nickname, photo_url) VALUES ($1, $2, $3) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, p.ID, p.Nickname, p.PhotoURL).Scan(&p.CreatedAt)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	p := &models.Player{}
	err := scanPlayer(r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPlayerRepository) List(ctx context.Context) ([]models.Player, error) {
	return r.query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY nickname`)
}

// Search ищет по подстроке никнейма без учёта регистра.
func (r *postgresPlayerRepository) Search(ctx context.Context, q string, limit int) ([]models.Player, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE nickname ILIKE '%' || $1 || '%' ORDER BY nickname LIMIT $2`,
		q, limit)
}

func (r *postgresPlayerRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := scanPlayer(rows, &p); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, p *models.Player) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE players SET nickname = $2, photo_url = $3 WHERE id = $1 RETURNING created_at`,
		p.ID, p.Nickname, p.PhotoURL,
	).Scan(&p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlayerNotFound
	}
	return err
}

// Delete не удаляет игроков, которые уже сидели за столом или упомянуты в раундах.
func (r *postgresPlayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		if pqErr, ok := pqError(err); ok && pqErr.Code == pqForeignKeyViolation {
			return ErrPlayerInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
