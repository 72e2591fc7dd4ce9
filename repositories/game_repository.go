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
	ErrGameNotFound       = errors.New("game not found")
	ErrGameConflict       = errors.New("game with this number already exists at this table")
	ErrSeatNotFound       = errors.New("player is not seated in this game")
	ErrSeatingMissing     = errors.New("game has no seating")
	ErrInvalidSeating     = errors.New("invalid seating")
	ErrRoundNotFound      = errors.New("round not found")
	ErrGamePlayerNotFound = errors.New("referenced player does not exist")
)

// GameRepository владеет агрегатом игры: рассадка, раунды, ЛХ и номинанты.
// Каждая многострочная запись выполняется в одной транзакции и блокирует строку игры,
// поэтому писатели одной игры выстраиваются в очередь.
type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	FindGameID(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (uuid.UUID, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Game, error)
	LoadSnapshot(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error)

	ReplaceSeating(ctx context.Context, gameID uuid.UUID, seats []models.SeatAssignment) error
	ClearSeating(ctx context.Context, gameID uuid.UUID) error
	ApplyRoles(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) error
	SetElimination(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (*models.Seat, error)
	SetCard(ctx context.Context, gameID, playerID uuid.UUID, card models.Card) (*models.Seat, error)
	ReplaceNominees(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) ([]models.Nominee, error)
	UpsertRound(ctx context.Context, gameID uuid.UUID, round *models.Round) (*models.Round, error)
	DeleteRound(ctx context.Context, gameID uuid.UUID, roundNumber int) error
	UpsertBestMove(ctx context.Context, gameID uuid.UUID, bestMove *models.BestMove) (*models.BestMove, error)
	SetOverlayHidden(ctx context.Context, gameID uuid.UUID, hidden bool) (*models.Game, error)
	SetGameStatus(ctx context.Context, gameID uuid.UUID, status models.GameStatus) (*models.Game, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, tournament_id, game_number, table_number, series_name, status, overlay_hidden, created_at`

func scanGame(row interface{ Scan(...interface{}) error }, g *models.Game) error {
	return row.Scan(&g.ID, &g.TournamentID, &g.GameNumber, &g.TableNumber, &g.SeriesName,
		&g.Status, &g.OverlayHidden, &g.CreatedAt)
}

// lockGame берёт блокировку строки игры до конца транзакции.
func lockGame(ctx context.Context, tx *sql.Tx, gameID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRowContext(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, gameID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to lock game %s: %w", gameID, err)
	}
	return nil
}

func (r *postgresGameRepository) withGameLock(ctx context.Context, gameID uuid.UUID, fn func(tx *sql.Tx) error) error {
	return runInTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if err := lockGame(ctx, tx, gameID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, g *models.Game) error {
	executor := r.getExecutor(exec)
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = models.GameStatusPending
	}
	query := `
		INSERT INTO games (id, tournament_id, game_number, table_number, series_name, status, overlay_hidden)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := executor.QueryRowContext(ctx, query,
		g.ID, g.TournamentID, g.GameNumber, g.TableNumber, g.SeriesName, g.Status, g.OverlayHidden,
	).Scan(&g.CreatedAt)
	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	g := &models.Game{}
	err := scanGame(r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id), g)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) FindGameID(ctx context.Context, tournamentID uuid.UUID, gameNumber int, tableNumber *int) (uuid.UUID, error) {
	query := `
		SELECT id FROM games
		WHERE tournament_id = $1 AND game_number = $2 AND ($3::int IS NULL OR table_number = $3::int)
		ORDER BY table_number
		LIMIT 1`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, tournamentID, gameNumber, tableNumber).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrGameNotFound
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Game, error) {
	query := `
		SELECT g.id, g.tournament_id, g.game_number, g.table_number, g.series_name, g.status,
		       g.overlay_hidden, g.created_at,
		       (SELECT COUNT(*) FROM game_seating gs WHERE gs.game_id = g.id) AS seating_count
		FROM games g
		WHERE g.tournament_id = $1
		ORDER BY g.game_number, g.table_number`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	for rows.Next() {
		var g models.Game
		var count int
		if err := rows.Scan(&g.ID, &g.TournamentID, &g.GameNumber, &g.TableNumber, &g.SeriesName,
			&g.Status, &g.OverlayHidden, &g.CreatedAt, &count); err != nil {
			return nil, err
		}
		g.SeatingCount = &count
		games = append(games, g)
	}
	return games, rows.Err()
}

func (r *postgresGameRepository) LoadSnapshot(ctx context.Context, gameID uuid.UUID) (*models.GameSnapshot, error) {
	snap := &models.GameSnapshot{}
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

	err := runInTx(ctx, r.db, opts, func(tx *sql.Tx) error {
		query := `
			SELECT g.id, g.tournament_id, g.game_number, g.table_number, g.series_name, g.status,
			       g.overlay_hidden, g.created_at, t.name
			FROM games g
			LEFT JOIN tournaments t ON t.id = g.tournament_id
			WHERE g.id = $1`
		g := &snap.Game
		err := tx.QueryRowContext(ctx, query, gameID).Scan(&g.ID, &g.TournamentID, &g.GameNumber,
			&g.TableNumber, &g.SeriesName, &g.Status, &g.OverlayHidden, &g.CreatedAt, &snap.TournamentName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrGameNotFound
			}
			return fmt.Errorf("failed to load game: %w", err)
		}

		if snap.Seating, err = r.loadSeating(ctx, tx, gameID); err != nil {
			return err
		}
		if snap.Rounds, err = r.loadRounds(ctx, tx, gameID); err != nil {
			return err
		}
		if snap.BestMove, err = r.loadBestMove(ctx, tx, gameID); err != nil {
			return err
		}
		if snap.Nominees, err = r.loadNominees(ctx, tx, gameID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

const seatSelect = `
	SELECT gs.game_id, gs.position, gs.player_id, gs.role, gs.team, gs.is_eliminated,
	       gs.elimination_reason, gs.card, p.nickname, p.photo_url
	FROM game_seating gs
	JOIN players p ON p.id = gs.player_id`

func scanSeat(row interface{ Scan(...interface{}) error }, s *models.Seat) error {
	return row.Scan(&s.GameID, &s.Position, &s.PlayerID, &s.Role, &s.Team, &s.IsEliminated,
		&s.EliminationReason, &s.Card, &s.Nickname, &s.PhotoURL)
}

func (r *postgresGameRepository) loadSeating(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) ([]models.Seat, error) {
	rows, err := exec.QueryContext(ctx, seatSelect+` WHERE gs.game_id = $1 ORDER BY gs.position`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seating: %w", err)
	}
	defer rows.Close()

	seats := make([]models.Seat, 0, models.SeatCount)
	for rows.Next() {
		var s models.Seat
		if err := scanSeat(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

const roundColumns = `game_id, round_number, mafia_kill_player_id, mafia_miss, don_check_player_id,
	sheriff_check_player_id, voted_out_players, nobody_voted_out`

func scanRound(row interface{ Scan(...interface{}) error }, rd *models.Round) error {
	var votedOut []byte
	err := row.Scan(&rd.GameID, &rd.RoundNumber, &rd.MafiaKillPlayerID, &rd.MafiaMiss,
		&rd.DonCheckPlayerID, &rd.SheriffCheckPlayerID, &votedOut, &rd.NobodyVotedOut)
	if err != nil {
		return err
	}
	rd.VotedOutPlayers = decodeVotedOut(votedOut)
	return nil
}

func (r *postgresGameRepository) loadRounds(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) ([]models.Round, error) {
	rows, err := exec.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM game_rounds WHERE game_id = $1 ORDER BY round_number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rounds: %w", err)
	}
	defer rows.Close()

	rounds := make([]models.Round, 0)
	for rows.Next() {
		var rd models.Round
		if err := scanRound(rows, &rd); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}

const bestMoveColumns = `game_id, first_killed_player_id, suspect_1, suspect_2, suspect_3`

func scanBestMove(row interface{ Scan(...interface{}) error }, bm *models.BestMove) error {
	return row.Scan(&bm.GameID, &bm.FirstKilledPlayerID, &bm.Suspect1, &bm.Suspect2, &bm.Suspect3)
}

func (r *postgresGameRepository) loadBestMove(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) (*models.BestMove, error) {
	bm := &models.BestMove{}
	err := scanBestMove(exec.QueryRowContext(ctx, `SELECT `+bestMoveColumns+` FROM best_move WHERE game_id = $1`, gameID), bm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load best move: %w", err)
	}
	return bm, nil
}

func (r *postgresGameRepository) loadNominees(ctx context.Context, exec SQLExecutor, gameID uuid.UUID) ([]models.Nominee, error) {
	query := `
		SELECT vn.game_id, vn.player_id, vn.position, p.nickname
		FROM voting_nominees vn
		JOIN players p ON p.id = vn.player_id
		WHERE vn.game_id = $1
		ORDER BY vn.position`
	rows, err := exec.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nominees: %w", err)
	}
	defer rows.Close()

	nominees := make([]models.Nominee, 0)
	for rows.Next() {
		var n models.Nominee
		if err := rows.Scan(&n.GameID, &n.PlayerID, &n.Position, &n.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan nominee: %w", err)
		}
		nominees = append(nominees, n)
	}
	return nominees, rows.Err()
}

type carriedSeatState struct {
	role              models.Role
	team              models.Team
	isEliminated      bool
	eliminationReason *string
	card              models.Card
}

// ReplaceSeating полностью заменяет рассадку. Роль, команда, выбытие и карточка переносятся
// по player_id, новые игроки получают значения по умолчанию.
func (r *postgresGameRepository) ReplaceSeating(ctx context.Context, gameID uuid.UUID, seats []models.SeatAssignment) error {
	if err := models.ValidateSeating(seats); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSeating, err)
	}

	return r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT player_id, role, team, is_eliminated, elimination_reason, card
			FROM game_seating WHERE game_id = $1`, gameID)
		if err != nil {
			return fmt.Errorf("failed to read current seating: %w", err)
		}
		carried := make(map[uuid.UUID]carriedSeatState, models.SeatCount)
		for rows.Next() {
			var playerID uuid.UUID
			var st carriedSeatState
			if err := rows.Scan(&playerID, &st.role, &st.team, &st.isEliminated, &st.eliminationReason, &st.card); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan current seating: %w", err)
			}
			carried[playerID] = st
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM game_seating WHERE game_id = $1`, gameID); err != nil {
			return fmt.Errorf("failed to clear seating: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO game_seating (id, game_id, position, player_id, role, team, is_eliminated, elimination_reason, card)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
		if err != nil {
			return fmt.Errorf("failed to prepare seating insert: %w", err)
		}
		defer stmt.Close()

		for _, s := range seats {
			st, ok := carried[s.PlayerID]
			if !ok {
				st = carriedSeatState{role: models.RoleCivilian, team: models.TeamRed, card: models.CardNone}
			}
			_, err := stmt.ExecContext(ctx, uuid.New(), gameID, s.Position, s.PlayerID,
				st.role, st.team, st.isEliminated, st.eliminationReason, st.card)
			if err != nil {
				return r.handleGameError(err)
			}
		}
		return nil
	})
}

func (r *postgresGameRepository) ClearSeating(ctx context.Context, gameID uuid.UUID) error {
	return r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM voting_nominees WHERE game_id = $1`, gameID); err != nil {
			return fmt.Errorf("failed to clear nominees: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM game_seating WHERE game_id = $1`, gameID); err != nil {
			return fmt.Errorf("failed to clear seating: %w", err)
		}
		return nil
	})
}

// ApplyRoles только записывает роли по позициям; распределение проверяет сервис.
func (r *postgresGameRepository) ApplyRoles(ctx context.Context, gameID uuid.UUID, roles []models.RoleAssignment) error {
	return r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		var seated int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_seating WHERE game_id = $1`, gameID).Scan(&seated); err != nil {
			return fmt.Errorf("failed to count seats: %w", err)
		}
		if seated == 0 {
			return ErrSeatingMissing
		}

		for _, ra := range roles {
			result, err := tx.ExecContext(ctx,
				`UPDATE game_seating SET role = $3, team = $4 WHERE game_id = $1 AND position = $2`,
				gameID, ra.Position, ra.Role, ra.Team)
			if err != nil {
				return fmt.Errorf("failed to update role at position %d: %w", ra.Position, err)
			}
			if err := checkAffectedRows(result, ErrSeatNotFound); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *postgresGameRepository) SetElimination(ctx context.Context, gameID, playerID uuid.UUID, eliminated bool) (*models.Seat, error) {
	var reason *string
	if eliminated {
		v := models.EliminationReasonRemoved
		reason = &v
	}

	seat := &models.Seat{}
	err := r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		query := `
			WITH updated AS (
				UPDATE game_seating SET is_eliminated = $3, elimination_reason = $4
				WHERE game_id = $1 AND player_id = $2
				RETURNING game_id, position, player_id, role, team, is_eliminated, elimination_reason, card
			)
			SELECT u.game_id, u.position, u.player_id, u.role, u.team, u.is_eliminated,
			       u.elimination_reason, u.card, p.nickname, p.photo_url
			FROM updated u JOIN players p ON p.id = u.player_id`
		err := scanSeat(tx.QueryRowContext(ctx, query, gameID, playerID, eliminated, reason), seat)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// SetCard ставит карточку. Красная карточка выбивает игрока, снятие карточки выбытие не отменяет.
func (r *postgresGameRepository) SetCard(ctx context.Context, gameID, playerID uuid.UUID, card models.Card) (*models.Seat, error) {
	seat := &models.Seat{}
	err := r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		query := `
			WITH updated AS (
				UPDATE game_seating SET
					card = $3,
					is_eliminated = is_eliminated OR $4,
					elimination_reason = CASE WHEN $4 THEN $5 ELSE elimination_reason END
				WHERE game_id = $1 AND player_id = $2
				RETURNING game_id, position, player_id, role, team, is_eliminated, elimination_reason, card
			)
			SELECT u.game_id, u.position, u.player_id, u.role, u.team, u.is_eliminated,
			       u.elimination_reason, u.card, p.nickname, p.photo_url
			FROM updated u JOIN players p ON p.id = u.player_id`
		err := scanSeat(tx.QueryRowContext(ctx, query,
			gameID, playerID, card, card == models.CardRed, models.EliminationReasonRemoved), seat)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return seat, nil
}

func (r *postgresGameRepository) ReplaceNominees(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) ([]models.Nominee, error) {
	var nominees []models.Nominee
	err := r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM voting_nominees WHERE game_id = $1`, gameID); err != nil {
			return fmt.Errorf("failed to clear nominees: %w", err)
		}
		for i, playerID := range playerIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO voting_nominees (id, game_id, player_id, position) VALUES ($1, $2, $3, $4)`,
				uuid.New(), gameID, playerID, i+1)
			if err != nil {
				return r.handleGameError(err)
			}
		}
		var err error
		nominees, err = r.loadNominees(ctx, tx, gameID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return nominees, nil
}

// UpsertRound создаёт или перезаписывает раунд. Убийство в первом раунде (не промах) в той же
// транзакции записывается в ЛХ как первый убитый.
func (r *postgresGameRepository) UpsertRound(ctx context.Context, gameID uuid.UUID, round *models.Round) (*models.Round, error) {
	votedOut, err := encodeVotedOut(round.VotedOutPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode voted out players: %w", err)
	}
	nobodyVotedOut := len(round.VotedOutPlayers) == 0

	saved := &models.Round{}
	err = r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		query := `
			INSERT INTO game_rounds (
				id, game_id, round_number, mafia_kill_player_id, mafia_miss,
				don_check_player_id, sheriff_check_player_id, voted_out_players, nobody_voted_out
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
			ON CONFLICT (game_id, round_number) DO UPDATE SET
				mafia_kill_player_id = EXCLUDED.mafia_kill_player_id,
				mafia_miss = EXCLUDED.mafia_miss,
				don_check_player_id = EXCLUDED.don_check_player_id,
				sheriff_check_player_id = EXCLUDED.sheriff_check_player_id,
				voted_out_players = EXCLUDED.voted_out_players,
				nobody_voted_out = EXCLUDED.nobody_voted_out
			RETURNING ` + roundColumns

		err := scanRound(tx.QueryRowContext(ctx, query,
			uuid.New(), gameID, round.RoundNumber, round.MafiaKillPlayerID, round.MafiaMiss,
			round.DonCheckPlayerID, round.SheriffCheckPlayerID, votedOut, nobodyVotedOut,
		), saved)
		if err != nil {
			return r.handleGameError(err)
		}

		if saved.RoundNumber != 1 {
			return nil
		}
		killed := saved.KilledPlayer()
		if killed == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO best_move (id, game_id, first_killed_player_id) VALUES ($1, $2, $3)
			ON CONFLICT (game_id) DO UPDATE SET first_killed_player_id = EXCLUDED.first_killed_player_id`,
			uuid.New(), gameID, *killed)
		if err != nil {
			return fmt.Errorf("failed to derive first killed player: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *postgresGameRepository) DeleteRound(ctx context.Context, gameID uuid.UUID, roundNumber int) error {
	return r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM game_rounds WHERE game_id = $1 AND round_number = $2`, gameID, roundNumber)
		if err != nil {
			return fmt.Errorf("failed to delete round: %w", err)
		}
		return checkAffectedRows(result, ErrRoundNotFound)
	})
}

func (r *postgresGameRepository) UpsertBestMove(ctx context.Context, gameID uuid.UUID, bm *models.BestMove) (*models.BestMove, error) {
	saved := &models.BestMove{}
	err := r.withGameLock(ctx, gameID, func(tx *sql.Tx) error {
		query := `
			INSERT INTO best_move (id, game_id, first_killed_player_id, suspect_1, suspect_2, suspect_3)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (game_id) DO UPDATE SET
				first_killed_player_id = EXCLUDED.first_killed_player_id,
				suspect_1 = EXCLUDED.suspect_1,
				suspect_2 = EXCLUDED.suspect_2,
				suspect_3 = EXCLUDED.suspect_3
			RETURNING ` + bestMoveColumns
		err := scanBestMove(tx.QueryRowContext(ctx, query,
			uuid.New(), gameID, bm.FirstKilledPlayerID, bm.Suspect1, bm.Suspect2, bm.Suspect3), saved)
		return r.handleGameError(err)
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *postgresGameRepository) SetOverlayHidden(ctx context.Context, gameID uuid.UUID, hidden bool) (*models.Game, error) {
	g := &models.Game{}
	err := scanGame(r.db.QueryRowContext(ctx,
		`UPDATE games SET overlay_hidden = $2 WHERE id = $1 RETURNING `+gameColumns, gameID, hidden), g)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) SetGameStatus(ctx context.Context, gameID uuid.UUID, status models.GameStatus) (*models.Game, error) {
	g := &models.Game{}
	err := scanGame(r.db.QueryRowContext(ctx,
		`UPDATE games SET status = $2 WHERE id = $1 RETURNING `+gameColumns, gameID, status), g)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	pqErr, ok := pqError(err)
	if !ok {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case "games_tournament_id_table_number_game_number_key":
			return ErrGameConflict
		case "game_seating_game_id_position_key", "game_seating_game_id_player_id_key":
			return fmt.Errorf("%w: %s", ErrInvalidSeating, pqErr.Detail)
		}
	case pqForeignKeyViolation:
		switch pqErr.Constraint {
		case "games_tournament_id_fkey":
			return ErrTournamentNotFound
		case "games_pkey", "game_seating_game_id_fkey", "game_rounds_game_id_fkey",
			"best_move_game_id_fkey", "voting_nominees_game_id_fkey":
			return ErrGameNotFound
		default:
			return ErrGamePlayerNotFound
		}
	}
	return fmt.Errorf("database error (code %s): %w", pqErr.Code, err)
}
