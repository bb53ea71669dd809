package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/corazonmc/cobblemon-league/mcstatus"
	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/pokedex"
	"github.com/corazonmc/cobblemon-league/services"
)

var errMissingRef = errors.New("ref query parameter is required")

// StatusHandler обслуживает вспомогательные read-only эндпоинты витрины:
// поиск по покедексу, статус игрового сервера и агрегированный обзор.
type StatusHandler struct {
	pokedexClient     *pokedex.Client
	mcstatusClient    *mcstatus.Client
	gymService        services.GymService
	tournamentService services.TournamentService
}

func NewStatusHandler(
	pokedexClient *pokedex.Client,
	mcstatusClient *mcstatus.Client,
	gymService services.GymService,
	tournamentService services.TournamentService,
) *StatusHandler {
	return &StatusHandler{
		pokedexClient:     pokedexClient,
		mcstatusClient:    mcstatusClient,
		gymService:        gymService,
		tournamentService: tournamentService,
	}
}

// SearchPokemon обрабатывает GET /api/pokedex/search?q=.
func (h *StatusHandler) SearchPokemon(w http.ResponseWriter, r *http.Request) {
	results, err := h.pokedexClient.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, results, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PokemonDetails обрабатывает GET /api/pokedex/pokemon?ref=.
func (h *StatusHandler) PokemonDetails(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		badRequestResponse(w, r, errMissingRef)
		return
	}

	pokemon, err := h.pokedexClient.Details(r.Context(), ref)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, pokemon, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ServerStatus обрабатывает GET /api/server-status.
func (h *StatusHandler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.mcstatusClient.Get(r.Context())
	if err != nil {
		// Сломанный внешний сервис не должен выглядеть ошибкой сервера:
		// витрина показывает оффлайн.
		status = &mcstatus.Status{Online: false}
	}
	if err := writeJSON(w, http.StatusOK, status, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Overview обрабатывает GET /api/overview: залы и турниры одним ответом,
// чтобы витрина стартовала с одного запроса. Загрузки идут параллельно.
func (h *StatusHandler) Overview(w http.ResponseWriter, r *http.Request) {
	var (
		gyms        map[string]*models.Gym
		tournaments []*models.Tournament
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		gyms, err = h.gymService.GetAll(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		tournaments, err = h.tournamentService.List(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"gyms":        gyms,
		"tournaments": tournaments,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
