package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/mafia-overlay/models"
	"github.com/Dosada05/mafia-overlay/services"
	"github.com/google/uuid"
)

type GameHandler struct {
	gameService services.GameService
}

func NewGameHandler(gs services.GameService) *GameHandler {
	return &GameHandler{gameService: gs}
}

// respondWithSnapshot отдаёт свежий снапшот после успешной команды вместе с изменённой частью.
// Если перечитать не удалось, команда всё равно применена: отдаём то, что есть.
func (h *GameHandler) respondWithSnapshot(w http.ResponseWriter, r *http.Request, gameID uuid.UUID, status int, extra jsonResponse) {
	env := jsonResponse{}
	for k, v := range extra {
		env[k] = v
	}
	snap, err := h.gameService.GetSnapshot(r.Context(), gameID)
	if err != nil {
		slog.WarnContext(r.Context(), "Failed to reload game after command",
			slog.String("game_id", gameID.String()), slog.Any("error", err))
	} else {
		env["game"] = snap
	}
	if err := writeJSON(w, status, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func warningsOrEmpty(w []string) []string {
	if w == nil {
		return []string{}
	}
	return w
}

// GetGame обрабатывает GET /api/games/{gameID}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	snap, err := h.gameService.GetSnapshot(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, snap, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTournamentGame обрабатывает GET /api/tournaments/{tournamentID}/games/{gameNumber}?table=N
func (h *GameHandler) GetTournamentGame(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	gameNumber, err := getIntFromURL(r, "gameNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var table *int
	if v := r.URL.Query().Get("table"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequestResponse(w, r, errors.New("invalid table query parameter"))
			return
		}
		table = &n
	}

	snap, err := h.gameService.FindSnapshot(r.Context(), tournamentID, gameNumber, table)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, snap, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateGame обрабатывает POST /api/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	game, err := h.gameService.CreateGame(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, game.ID, http.StatusCreated, nil)
}

// AssignSeating обрабатывает PUT /api/games/{gameID}/seating
func (h *GameHandler) AssignSeating(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Seating []models.SeatAssignment `json:"seating"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.gameService.AssignSeating(r.Context(), gameID, input.Seating); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, nil)
}

// ClearSeating обрабатывает DELETE /api/games/{gameID}/seating
func (h *GameHandler) ClearSeating(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.gameService.ClearSeating(r.Context(), gameID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, nil)
}

// AssignRoles обрабатывает PUT /api/games/{gameID}/roles
func (h *GameHandler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Roles []models.RoleAssignment `json:"roles"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.gameService.AssignRoles(r.Context(), gameID, input.Roles)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, jsonResponse{
		"changed_positions": res.ChangedPositions,
		"warnings":          warningsOrEmpty(res.Warnings),
	})
}

// SetElimination обрабатывает PATCH /api/games/{gameID}/seats/{playerID}/elimination
func (h *GameHandler) SetElimination(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Eliminated *bool `json:"eliminated"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Eliminated == nil {
		badRequestResponse(w, r, errors.New("eliminated is required"))
		return
	}
	seat, err := h.gameService.SetElimination(r.Context(), gameID, playerID, *input.Eliminated)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, jsonResponse{"seat": seat})
}

// SetCard обрабатывает PATCH /api/games/{gameID}/seats/{playerID}/card
func (h *GameHandler) SetCard(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Card models.Card `json:"card"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	seat, err := h.gameService.SetCard(r.Context(), gameID, playerID, input.Card)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, jsonResponse{"seat": seat})
}

// UpdateNominees обрабатывает PUT /api/games/{gameID}/nominees
func (h *GameHandler) UpdateNominees(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PlayerIDs []uuid.UUID `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	nominees, err := h.gameService.UpdateNominees(r.Context(), gameID, input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, jsonResponse{"nominees": nominees})
}

// SaveRound обрабатывает POST /api/games/{gameID}/rounds и PUT /api/games/{gameID}/rounds/{roundNumber}
func (h *GameHandler) SaveRound(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	// Номер раунда из пути важнее тела запроса.
	if r.Method == http.MethodPut {
		n, err := getIntFromURL(r, "roundNumber")
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		input.RoundNumber = n
	}

	round, err := h.gameService.SaveRound(r.Context(), gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, jsonResponse{"round": round})
}

// DeleteRound обрабатывает DELETE /api/games/{gameID}/rounds/{roundNumber}
func (h *GameHandler) DeleteRound(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	n, err := getIntFromURL(r, "roundNumber")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.gameService.DeleteRound(r.Context(), gameID, n); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, nil)
}

// SetBestMove обрабатывает POST /api/games/{gameID}/best-move
func (h *GameHandler) SetBestMove(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.BestMoveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.gameService.SetBestMove(r.Context(), gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, jsonResponse{
		"best_move": res.BestMove,
		"warnings":  warningsOrEmpty(res.Warnings),
	})
}

// SetOverlay обрабатывает PATCH /api/games/{gameID}/overlay
func (h *GameHandler) SetOverlay(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Hidden *bool `json:"hidden"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Hidden == nil {
		badRequestResponse(w, r, errors.New("hidden is required"))
		return
	}
	if _, err := h.gameService.SetOverlayHidden(r.Context(), gameID, *input.Hidden); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, nil)
}

// SetStatus обрабатывает PATCH /api/games/{gameID}/status
func (h *GameHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		Status models.GameStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := h.gameService.SetStatus(r.Context(), gameID, input.Status); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respondWithSnapshot(w, r, gameID, http.StatusOK, nil)
}
