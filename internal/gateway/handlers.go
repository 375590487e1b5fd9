package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/avisingh/spl-auction/internal/auction"
	"github.com/avisingh/spl-auction/internal/export"
	"github.com/avisingh/spl-auction/internal/ledger"
	"github.com/avisingh/spl-auction/internal/models"
)

// Handler exposes the auction app over a JSON API. Reads are open; every
// mutation sits behind the admin token.
type Handler struct {
	app *auction.App
	cm  *ConnectionManager
}

// NewHandler creates the API handler.
func NewHandler(app *auction.App, cm *ConnectionManager) *Handler {
	return &Handler{app: app, cm: cm}
}

// RegisterRoutes mounts every route on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Open reads.
	mux.HandleFunc("GET /api/state", h.handleState)
	mux.HandleFunc("GET /api/players", h.handlePlayers)
	mux.HandleFunc("GET /api/teams", h.handleTeams)
	mux.HandleFunc("GET /ws", h.handleWebSocket)

	// Exports.
	mux.HandleFunc("GET /export/players.csv", h.handleExportPlayers)
	mux.HandleFunc("GET /export/sold.csv", h.handleExportSold)
	mux.HandleFunc("GET /export/rosters.csv", h.handleExportRosters)
	mux.HandleFunc("GET /export/summary.csv", h.handleExportSummary)

	// Admin session.
	mux.HandleFunc("POST /api/admin/login", h.handleLogin)
	mux.HandleFunc("POST /api/admin/logout", h.requireAdmin(h.handleLogout))

	// Auction flow.
	mux.HandleFunc("POST /api/auction/select", h.requireAdmin(h.handleSelect))
	mux.HandleFunc("POST /api/auction/random", h.requireAdmin(h.handleRandomPick))
	mux.HandleFunc("POST /api/auction/bid/raise", h.requireAdmin(h.handleRaiseBid))
	mux.HandleFunc("POST /api/auction/bid/set", h.requireAdmin(h.handleSetBid))
	mux.HandleFunc("POST /api/auction/bid/reset", h.requireAdmin(h.handleResetBid))
	mux.HandleFunc("POST /api/auction/sell", h.requireAdmin(h.handleSell))
	mux.HandleFunc("POST /api/auction/unsold", h.requireAdmin(h.handleUnsold))
	mux.HandleFunc("POST /api/auction/assign", h.requireAdmin(h.handleAssign))
	mux.HandleFunc("POST /api/auction/reset", h.requireAdmin(h.handleResetAll))

	// Catalog and franchise admin.
	mux.HandleFunc("POST /api/players", h.requireAdmin(h.handleAddPlayer))
	mux.HandleFunc("DELETE /api/players/{id}", h.requireAdmin(h.handleDeletePlayer))
	mux.HandleFunc("POST /api/teams", h.requireAdmin(h.handleAddTeam))
	mux.HandleFunc("DELETE /api/teams/{id}", h.requireAdmin(h.handleRemoveTeam))
	mux.HandleFunc("DELETE /api/teams/{id}/roster/{index}", h.requireAdmin(h.handleRemoveFromRoster))

	// Display settings.
	mux.HandleFunc("PUT /api/theme", h.requireAdmin(h.handleSetTheme))
}

// requireAdmin rejects requests without a live admin token in the
// Authorization header.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		header := r.Header.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix || !h.app.ValidToken(header[len(prefix):]) {
			writeError(w, http.StatusUnauthorized, "admin token required")
			return
		}
		next(w, r)
	}
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := h.app.Snapshot(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handlePlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	players := h.app.SearchPlayers(
		q.Get("q"),
		models.PlayerRole(q.Get("role")),
		models.PlayerStatus(q.Get("status")),
	)
	writeJSON(w, http.StatusOK, players)
}

func (h *Handler) handleTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Teams())
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.cm.UpgradeConnection(w, r); err != nil {
		// Upgrade already wrote the error response.
		return
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	token, err := h.app.Login(r.Context(), req.Password)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")[len("Bearer "):]
	if err := h.app.Logout(r.Context(), token); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID int `json:"playerId"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, ok := h.app.SelectPlayer(req.PlayerID)
	if !ok {
		writeError(w, http.StatusNotFound, "player not found or not eligible")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleRandomPick(w http.ResponseWriter, r *http.Request) {
	pick, err := h.app.RandomPick()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pick)
}

func (h *Handler) handleRaiseBid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step int `json:"step"`
	}
	if !decode(w, r, &req) {
		return
	}
	bid, err := h.app.RaiseBid(req.Step)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"bid": bid})
}

func (h *Handler) handleSetBid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	bid, err := h.app.SetBid(req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"bid": bid})
}

func (h *Handler) handleResetBid(w http.ResponseWriter, r *http.Request) {
	bid, err := h.app.ResetBid()
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"bid": bid})
}

func (h *Handler) handleSell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID int `json:"teamId"`
	}
	if !decode(w, r, &req) {
		return
	}
	sale, err := h.app.ConfirmSale(r.Context(), req.TeamID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) handleUnsold(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.MarkUnsold(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID   int `json:"teamId"`
		PlayerID int `json:"playerId"`
		Price    int `json:"price"`
	}
	if !decode(w, r, &req) {
		return
	}
	sale, err := h.app.ManualAssign(r.Context(), req.TeamID, req.PlayerID, req.Price)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if sale == nil {
		writeError(w, http.StatusNotFound, "team or player not found")
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) handleResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.app.ResetAll(r.Context()); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	var req ledger.AddPlayerRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.app.AddPlayer(r.Context(), req)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	p, found, err := h.app.DeletePlayer(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAddTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		ShortName string `json:"shortName"`
		Color     string `json:"color"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := h.app.AddTeam(r.Context(), req.Name, req.ShortName, req.Color)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleRemoveTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	freed, found, err := h.app.RemoveTeam(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"freed": freed})
}

func (h *Handler) handleRemoveFromRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	index, ok := pathInt(w, r, "index")
	if !ok {
		return
	}
	removal, err := h.app.RemovePlayerFromTeam(r.Context(), id, index)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if removal == nil {
		writeError(w, http.StatusNotFound, "team or roster slot not found")
		return
	}
	writeJSON(w, http.StatusOK, removal)
}

func (h *Handler) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Theme != "dark" && req.Theme != "light" {
		writeError(w, http.StatusBadRequest, "theme must be dark or light")
		return
	}
	if err := h.app.SetTheme(r.Context(), req.Theme); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExportPlayers(w http.ResponseWriter, r *http.Request) {
	data, err := export.Players(h.app.Players(), h.app.Teams())
	writeCSV(w, "players.csv", data, err)
}

func (h *Handler) handleExportSold(w http.ResponseWriter, r *http.Request) {
	data, err := export.Sold(h.app.Players(), h.app.Teams())
	writeCSV(w, "sold.csv", data, err)
}

func (h *Handler) handleExportRosters(w http.ResponseWriter, r *http.Request) {
	data, err := export.TeamRosters(h.app.Teams())
	writeCSV(w, "rosters.csv", data, err)
}

func (h *Handler) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	data, err := export.Summary(h.app.Teams(), h.app.Rules().RosterCap)
	writeCSV(w, "summary.csv", data, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeCSV(w http.ResponseWriter, filename string, data []byte, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write CSV response")
	}
}

// writeLedgerError maps domain errors onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auction.ErrBadPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrNameRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNoCurrentPlayer),
		errors.Is(err, ledger.ErrPlayerNotEligible),
		errors.Is(err, ledger.ErrRosterFull),
		errors.Is(err, ledger.ErrInsufficientBudget),
		errors.Is(err, ledger.ErrBidExceedsCeiling),
		errors.Is(err, ledger.ErrFoundingMember),
		errors.Is(err, ledger.ErrDuplicateName),
		errors.Is(err, ledger.ErrNoEligiblePlayers):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
