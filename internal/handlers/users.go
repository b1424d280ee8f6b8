package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

const (
	maxPhotoBytes = 10 << 20
	uploadTimeout = 30 * time.Second
)

type UserHandler struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUserHandler(users *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type syncUserRequest struct {
	FirebaseUID string `json:"firebaseUID" validate:"required"`
	Name        string `json:"name"`
	Email       string `json:"email" validate:"omitempty,email"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// Sync handles POST /users/sync, called by the client after every sign-in.
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req syncUserRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	user, err := h.users.Sync(ctx, services.SyncUserInput{
		FirebaseUID: req.FirebaseUID,
		Name:        req.Name,
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "user", user)
}

// Get handles GET /users/{firebaseUID}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeContext(r)
	defer cancel()

	user, err := h.users.GetByFirebaseUID(ctx, chi.URLParam(r, "firebaseUID"))
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "user", user)
}

// UploadPhoto handles POST /users/photo as multipart form data with a
// firebaseUID field and an image in "file".
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+1<<20)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		fail(w, r, h.log, &services.Error{Kind: services.ErrValidation, Message: "Failed to parse form."})
		return
	}
	uid := strings.TrimSpace(r.FormValue("firebaseUID"))
	if uid == "" {
		fail(w, r, h.log, &services.Error{Kind: services.ErrValidation, Message: "firebaseUID is required."})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		fail(w, r, h.log, &services.Error{Kind: services.ErrValidation, Message: "No file provided."})
		return
	}
	defer file.Close()

	if !isImage(file) {
		fail(w, r, h.log, &services.Error{Kind: services.ErrValidation, Message: "File must be an image."})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uploadTimeout)
	defer cancel()

	user, err := h.users.UploadPhoto(ctx, uid, file)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "user", user)
}

// isImage sniffs the head of f and rewinds it.
func isImage(f io.ReadSeeker) bool {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false
	}
	return strings.HasPrefix(http.DetectContentType(head[:n]), "image/")
}
