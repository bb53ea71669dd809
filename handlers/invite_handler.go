package handlers

import (
	"net/http"

	"github.com/corazonmc/cobblemon-league/services"
)

type InviteHandler struct {
	inviteService services.InviteService
}

func NewInviteHandler(inviteService services.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

// ListPending обрабатывает GET /api/invites?nick=. Клиент опрашивает этот
// эндпоинт раз в несколько секунд, поэтому ответ максимально дешёвый.
func (h *InviteHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	invites, err := h.inviteService.ListForNick(r.Context(), r.URL.Query().Get("nick"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, invites, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Send обрабатывает POST /api/invites: приглашение в пару для даблов.
// Отправителем всегда выступает автор запроса.
func (h *InviteHandler) Send(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	var input struct {
		TournamentID int    `json:"tournamentId"`
		ToNick       string `json:"toNick"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	invite, err := h.inviteService.Send(r.Context(), input.TournamentID, actor.Nick, input.ToNick)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, invite, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Respond обрабатывает POST /api/invites/{id}/respond.
func (h *InviteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Accept bool `json:"accept"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.inviteService.Respond(r.Context(), id, input.Accept); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
