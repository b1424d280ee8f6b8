package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

type NoteHandler struct {
	notes *services.NoteService
	log   *zap.Logger
}

func NewNoteHandler(notes *services.NoteService, log *zap.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, log: log}
}

type userRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type noteRequest struct {
	UserID string `json:"userId" validate:"required"`
	NoteID string `json:"noteId" validate:"required"`
}

// Public notes are readable without a caller id.
type getNoteRequest struct {
	NoteID string `json:"noteId" validate:"required"`
	UserID string `json:"userId"`
}

type searchNotesRequest struct {
	SearchTerm  string `json:"searchTerm"`
	Page        int    `json:"page" validate:"min=0"`
	FirebaseUID string `json:"firebaseUID"`
}

type ownNotesRequest struct {
	UserID     string `json:"userId" validate:"required"`
	SearchTerm string `json:"searchTerm"`
	Page       int    `json:"page" validate:"min=0"`
}

type updateNoteRequest struct {
	UserID   string `json:"userId" validate:"required"`
	NoteID   string `json:"noteId" validate:"required"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

type renameNoteRequest struct {
	UserID string `json:"userId" validate:"required"`
	NoteID string `json:"noteId" validate:"required"`
	Title  string `json:"title" validate:"required"`
}

// Create handles POST /notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	note, err := h.notes.CreateBlankNote(ctx, req.UserID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "note", note)
}

// Count handles POST /notes/count.
func (h *NoteHandler) Count(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	n, err := h.notes.CountNotes(ctx, req.UserID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "noteCount", n)
}

func writePage(w http.ResponseWriter, page *services.NotePage) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"notes":    page.Notes,
		"nextPage": page.NextPage,
	})
}

// Search handles POST /notes/search.
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchNotesRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	page, err := h.notes.SearchPublicAndOwnNotes(ctx, req.SearchTerm, req.Page, req.FirebaseUID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	writePage(w, page)
}

// Mine handles POST /notes/mine.
func (h *NoteHandler) Mine(w http.ResponseWriter, r *http.Request) {
	var req ownNotesRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	page, err := h.notes.GetOwnNotes(ctx, req.UserID, req.SearchTerm, req.Page)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	writePage(w, page)
}

// Get handles POST /notes/get.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req getNoteRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	note, err := h.notes.GetNoteByID(ctx, req.NoteID, req.UserID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "note", note)
}

// Update handles POST /notes/update.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	note, err := h.notes.UpdateNote(ctx, services.UpdateNoteInput{
		UserID:   req.UserID,
		NoteID:   req.NoteID,
		Title:    req.Title,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "note", note)
}

// Rename handles POST /notes/rename.
func (h *NoteHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameNoteRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	note, err := h.notes.RenameNote(ctx, req.UserID, req.NoteID, req.Title)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "note", note)
}

// Delete handles POST /notes/delete.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	if err := h.notes.DeleteNote(ctx, req.UserID, req.NoteID); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "message", services.MsgNoteDeleted)
}
