package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/corazonmc/cobblemon-league/handlers"
	"github.com/corazonmc/cobblemon-league/middleware"
)

// Handlers собирает все обработчики, которые монтирует роутер.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Trainer    *handlers.TrainerHandler
	Gym        *handlers.GymHandler
	Tournament *handlers.TournamentHandler
	Invite     *handlers.InviteHandler
	Status     *handlers.StatusHandler
}

func InitRoutes(h Handlers, jwtSecret []byte) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		// Клиенты опрашивают состояние раз в несколько секунд; любое
		// промежуточное кэширование отдаёт им протухшие списки.
		r.Use(noStore)

		r.Post("/trainers", h.Auth.Register)
		r.Post("/login", h.Auth.Login)

		// Публичные просмотровые маршруты.
		r.Get("/trainers", h.Trainer.List)
		r.Get("/gyms", h.Gym.GetAll)
		r.Get("/tournaments", h.Tournament.List)
		r.Get("/tournaments/{id}", h.Tournament.GetByID)
		r.Get("/invites", h.Invite.ListPending)
		r.Get("/pokedex/search", h.Status.SearchPokemon)
		r.Get("/pokedex/pokemon", h.Status.PokemonDetails)
		r.Get("/server-status", h.Status.ServerStatus)
		r.Get("/overview", h.Status.Overview)

		// Маршруты под сессией тренера.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/insignias", h.Trainer.ToggleBadge)
			r.Put("/trainers/{id}/skin", h.Trainer.UploadSkin)

			r.Route("/gyms/{tipo}", func(r chi.Router) {
				r.Post("/leader", h.Gym.ClaimLeader)
				r.Put("/team/{slot}", h.Gym.UpdateTeamSlot)
				r.Post("/reset", h.Gym.Reset)
				r.Post("/challenge", h.Gym.ToggleChallenge)
				r.Post("/accept-challenge", h.Gym.AcceptChallenge)
				r.Post("/resolve-battle", h.Gym.ResolveBattle)
			})

			r.Post("/tournaments/{id}/join", h.Tournament.Join)
			r.Post("/tournaments/{id}/leave", h.Tournament.Leave)
			r.Post("/tournaments/{id}/matches/{matchID}/win", h.Tournament.DeclareWinner)
			r.Post("/tournaments/{id}/matches/{matchID}/ban", h.Tournament.ToggleBan)

			r.Post("/invites", h.Invite.Send)
			r.Post("/invites/{id}/respond", h.Invite.Respond)

			// Административные операции.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Delete("/trainers/{id}", h.Trainer.Delete)
				r.Post("/tournaments", h.Tournament.Create)
				r.Post("/tournaments/{id}/start", h.Tournament.Start)
			})
		})
	})

	return router
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
