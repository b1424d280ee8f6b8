package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

type stubCoach struct {
	raw string
	err error
}

func (c *stubCoach) Reply(context.Context, []services.Turn, string) (string, error) {
	return c.raw, c.err
}

type stubUploader struct {
	url    string
	folder string
}

func (u *stubUploader) UploadImage(_ context.Context, file io.Reader, folder string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	u.folder = folder
	return u.url, nil
}

type testServer struct {
	db       *gorm.DB
	coach    *stubCoach
	uploader *stubUploader
	hub      *services.ChatHub
	router   chi.Router
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zap.NewNop()
	db := setupTestDB(t)
	ts := &testServer{
		db:       db,
		coach:    &stubCoach{raw: `{"reply":"That sounds hard.","sentiment":3}`},
		uploader: &stubUploader{url: "https://res.cloudinary.com/demo/avatar.png"},
		hub:      services.NewChatHub(nil, log),
	}

	activity := services.NewActivityService(db, nil, log)
	chats := NewChatHandler(services.NewChatService(db, ts.hub, false, log), ts.hub, []string{"http://localhost:3000"}, log)
	notes := NewNoteHandler(services.NewNoteService(db, activity, log), log)
	eq := NewEQHandler(services.NewEQService(db, ts.coach, services.NewCacheService(nil), activity,
		services.EQOptions{Location: time.UTC}, log), log)
	users := NewUserHandler(services.NewUserService(db, ts.uploader, log), log)

	r := chi.NewRouter()
	r.Post("/chats", chats.CreateOrGet)
	r.Get("/chats/{id}", chats.ListForUser)
	r.Get("/chats/{id}/messages", chats.Messages)
	r.Post("/chats/{id}/messages", chats.SendMessage)
	r.Get("/ws/chats/{id}", chats.Stream)
	r.Post("/notes", notes.Create)
	r.Post("/notes/count", notes.Count)
	r.Post("/notes/search", notes.Search)
	r.Post("/notes/mine", notes.Mine)
	r.Post("/notes/get", notes.Get)
	r.Post("/notes/update", notes.Update)
	r.Post("/notes/rename", notes.Rename)
	r.Post("/notes/delete", notes.Delete)
	r.Post("/eq/score", eq.Score)
	r.Post("/eq/chat", eq.Chat)
	r.Post("/eq/mood/check", eq.MoodCheck)
	r.Post("/eq/mood", eq.AddMood)
	r.Get("/eq/high", eq.HighEQ)
	r.Post("/eq/activity", eq.TrackActivity)
	r.Get("/eq/activity/{firebaseUID}", eq.Activity)
	r.Post("/users/sync", users.Sync)
	r.Post("/users/photo", users.UploadPhoto)
	r.Get("/users/{firebaseUID}", users.Get)
	ts.router = r
	return ts
}

func (ts *testServer) seedUser(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{
		ID:          uuid.NewString(),
		FirebaseUID: "fb-" + name,
		Name:        name,
		Email:       name + "@example.com",
		Role:        models.RoleUser,
	}
	require.NoError(t, ts.db.Create(u).Error)
	return u
}

// do sends body as JSON and decodes the response into a generic map.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

type jsonObject = map[string]interface{}
