package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/services"
)

type GymHandler struct {
	gymService services.GymService
}

func NewGymHandler(gymService services.GymService) *GymHandler {
	return &GymHandler{gymService: gymService}
}

// GetAll обрабатывает GET /api/gyms: карта всех залов по типу.
func (h *GymHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	gyms, err := h.gymService.GetAll(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, gyms, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ClaimLeader обрабатывает POST /api/gyms/{tipo}/leader.
func (h *GymHandler) ClaimLeader(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	var input struct {
		Nick string `json:"nick"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	gym, err := h.gymService.ClaimLeader(r.Context(), chi.URLParam(r, "tipo"), actor, input.Nick)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, gym, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTeamSlot обрабатывает PUT /api/gyms/{tipo}/team/{slot}.
// Тело с null убирает покемона из слота.
func (h *GymHandler) UpdateTeamSlot(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	// Слоты нумеруются с нуля, поэтому getIDFromURL здесь не годится.
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid slot parameter in URL"))
		return
	}

	var input struct {
		Pokemon *models.Pokemon `json:"pokemon"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	gym, err := h.gymService.UpdateTeamSlot(r.Context(), chi.URLParam(r, "tipo"), actor, slot, input.Pokemon)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, gym, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reset обрабатывает POST /api/gyms/{tipo}/reset.
func (h *GymHandler) Reset(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	if err := h.gymService.Reset(r.Context(), chi.URLParam(r, "tipo"), actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleChallenge обрабатывает POST /api/gyms/{tipo}/challenge.
// Повторный запрос того же ника снимает вызов.
func (h *GymHandler) ToggleChallenge(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	challengers, err := h.gymService.ToggleChallenge(r.Context(), chi.URLParam(r, "tipo"), actor.Nick)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"challengers": challengers}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AcceptChallenge обрабатывает POST /api/gyms/{tipo}/accept-challenge.
func (h *GymHandler) AcceptChallenge(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	var input struct {
		Nick string `json:"nick"`
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	battle, err := h.gymService.AcceptChallenge(r.Context(), chi.URLParam(r, "tipo"), actor, input.Nick, input.Date, input.Time)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, battle, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolveBattle обрабатывает POST /api/gyms/{tipo}/resolve-battle.
func (h *GymHandler) ResolveBattle(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	var input struct {
		Result models.BattleResult `json:"result"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gymService.ResolveBattle(r.Context(), chi.URLParam(r, "tipo"), actor, input.Result); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
