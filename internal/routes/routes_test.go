package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/handlers"
)

func newRouter(h Handlers) chi.Router {
	log := zap.NewNop()
	if h.Chats == nil {
		h.Chats = handlers.NewChatHandler(nil, nil, nil, log)
	}
	h.Notes = handlers.NewNoteHandler(nil, log)
	h.EQ = handlers.NewEQHandler(nil, log)
	h.Users = handlers.NewUserHandler(nil, log)
	r := chi.NewRouter()
	SetupRoutes(r, h)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthRoutes(t *testing.T) {
	r := newRouter(Handlers{})

	rec := get(r, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = get(r, "/api/v1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":"MindNest API v1"}`, rec.Body.String())
}

func TestReadyReportsDependencies(t *testing.T) {
	up := handlers.PingFunc(func(context.Context) error { return nil })
	down := handlers.PingFunc(func(context.Context) error { return errors.New("refused") })

	rec := get(newRouter(Handlers{Deps: map[string]handlers.Pinger{"postgres": up}}), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"dependencies":{"postgres":"up"}}`, rec.Body.String())

	rec = get(newRouter(Handlers{Deps: map[string]handlers.Pinger{"postgres": up, "redis": down}}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"dependencies":{"postgres":"up","redis":"down"}}`, rec.Body.String())
}

func TestAIChatRouteUsesItsOwnLimiter(t *testing.T) {
	reject := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := newRouter(Handlers{AIChat: reject})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/eq/chat", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other EQ routes are unaffected.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/eq/mood", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := get(newRouter(Handlers{}), "/api/v1/journals")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamWithoutHub(t *testing.T) {
	rec := get(newRouter(Handlers{}), "/api/v1/ws/chats/abc")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
