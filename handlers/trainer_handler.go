package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/corazonmc/cobblemon-league/services"
)

const maxSkinUploadBytes = 2 << 20 // 2MB, скины — маленькие PNG

type TrainerHandler struct {
	trainerService services.TrainerService
}

func NewTrainerHandler(trainerService services.TrainerService) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService}
}

// List обрабатывает GET /api/trainers.
func (h *TrainerHandler) List(w http.ResponseWriter, r *http.Request) {
	trainers, err := h.trainerService.List(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, trainers, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete обрабатывает DELETE /api/trainers/{id}. Только для админа,
// ограничение навешано на уровне роутера.
func (h *TrainerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.trainerService.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleBadge обрабатывает POST /api/insignias: значок либо выдаётся,
// либо снимается. Тренер управляет только своими значками, админ — чьими
// угодно.
func (h *TrainerHandler) ToggleBadge(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	var input struct {
		TrainerID int    `json:"trainerId"`
		BadgeID   string `json:"badgeId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	targetID := input.TrainerID
	if targetID == 0 {
		targetID = actor.TrainerID
	}
	if !actor.IsAdmin() && targetID != actor.TrainerID {
		forbiddenResponse(w, r, services.ErrForbiddenOperation.Error())
		return
	}

	trainer, err := h.trainerService.ToggleBadge(r.Context(), targetID, input.BadgeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, trainer, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadSkin обрабатывает PUT /api/trainers/{id}/skin: multipart-поле
// "skin" уходит в объектное хранилище.
func (h *TrainerHandler) UploadSkin(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "invalid session")
		return
	}

	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !actor.IsAdmin() && id != actor.TrainerID {
		forbiddenResponse(w, r, services.ErrForbiddenOperation.Error())
		return
	}

	if err := r.ParseMultipartForm(maxSkinUploadBytes); err != nil {
		badRequestResponse(w, r, errors.New("request must be multipart form data with a skin file"))
		return
	}

	file, header, err := r.FormFile("skin")
	if err != nil {
		badRequestResponse(w, r, errors.New("skin file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		badRequestResponse(w, r, errors.New("skin must be an image"))
		return
	}

	trainer, err := h.trainerService.UploadSkin(r.Context(), id, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, trainer, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
