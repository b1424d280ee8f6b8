package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
)

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	Chats *handlers.ChatHandler
	Notes *handlers.NoteHandler
	EQ    *handlers.EQHandler
	Users *handlers.UserHandler
	// Deps are reported by GET /ready.
	Deps map[string]handlers.Pinger
	// AIChat wraps the AI coach route with its own, tighter limit.
	AIChat func(http.Handler) http.Handler
}

func SetupRoutes(r chi.Router, h Handlers) {
	r.Get("/health", handlers.Health)
	r.Get("/ready", handlers.Ready(h.Deps))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", handlers.Index)

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", h.Chats.CreateOrGet)
			r.Get("/{id}", h.Chats.ListForUser)
			r.Get("/{id}/messages", h.Chats.Messages)
			r.Post("/{id}/messages", h.Chats.SendMessage)
		})
		r.Get("/ws/chats/{id}", h.Chats.Stream)

		r.Route("/notes", func(r chi.Router) {
			r.Post("/", h.Notes.Create)
			r.Post("/count", h.Notes.Count)
			r.Post("/search", h.Notes.Search)
			r.Post("/mine", h.Notes.Mine)
			r.Post("/get", h.Notes.Get)
			r.Post("/update", h.Notes.Update)
			r.Post("/rename", h.Notes.Rename)
			r.Post("/delete", h.Notes.Delete)
		})

		r.Route("/eq", func(r chi.Router) {
			r.Post("/score", h.EQ.Score)
			chat := http.Handler(http.HandlerFunc(h.EQ.Chat))
			if h.AIChat != nil {
				chat = h.AIChat(chat)
			}
			r.Method(http.MethodPost, "/chat", chat)
			r.Post("/mood/check", h.EQ.MoodCheck)
			r.Post("/mood", h.EQ.AddMood)
			r.Get("/high", h.EQ.HighEQ)
			r.Post("/activity", h.EQ.TrackActivity)
			r.Get("/activity/{firebaseUID}", h.EQ.Activity)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/sync", h.Users.Sync)
			r.Post("/photo", h.Users.UploadPhoto)
			r.Get("/{firebaseUID}", h.Users.Get)
		})
	})
}
