package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/pkg/utils"
)

const (
	NotePageSize      = 4
	noteSnippetLength = 300
	blankNoteTitle    = "Blank Note"
)

// NoteSummary is one row of a search page.
type NoteSummary struct {
	NoteID    string                `json:"noteId"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	IsPublic  bool                  `json:"isPublic"`
	UpdatedAt time.Time             `json:"updatedAt"`
	User      *models.PublicProfile `json:"user,omitempty"`
}

// NotePage holds one page of results. NextPage is nil on the last page.
type NotePage struct {
	Notes    []NoteSummary `json:"notes"`
	NextPage *int          `json:"nextPage"`
}

// NoteDetail is a full note with its owner's public profile.
type NoteDetail struct {
	NoteID    string                `json:"noteId"`
	UserID    string                `json:"userId"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	IsPublic  bool                  `json:"isPublic"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
	User      *models.PublicProfile `json:"user,omitempty"`
}

func newNoteDetail(n *models.Note) *NoteDetail {
	return &NoteDetail{
		NoteID:    n.NoteID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		IsPublic:  n.IsPublic,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		User:      n.User.PublicProfile(),
	}
}

type UpdateNoteInput struct {
	UserID   string
	NoteID   string
	Title    string
	Content  string
	IsPublic bool
}

type NoteService struct {
	db       *gorm.DB
	activity *ActivityService
	log      *zap.Logger
}

func NewNoteService(db *gorm.DB, activity *ActivityService, log *zap.Logger) *NoteService {
	return &NoteService{db: db, activity: activity, log: log}
}

// CreateBlankNote creates an empty private note and logs a JOURNAL activity.
func (s *NoteService) CreateBlankNote(ctx context.Context, userID string) (*NoteDetail, error) {
	user, err := findUserByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	note := &models.Note{
		NoteID: uuid.NewString(),
		UserID: user.ID,
		Title:  blankNoteTitle,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	if s.activity != nil {
		meta := map[string]interface{}{"noteId": note.NoteID}
		if _, err := s.activity.Record(ctx, user.ID, models.ActivityJournal, meta); err != nil {
			s.log.Warn("failed to record journal activity", zap.String("note_id", note.NoteID), zap.Error(err))
		}
	}

	note.User = user
	return newNoteDetail(note), nil
}

func (s *NoteService) CountNotes(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, validationError("userId is required")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Note{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

// SearchPublicAndOwnNotes pages through notes that are public or owned by
// the caller and match searchTerm. An unknown caller only sees public notes.
func (s *NoteService) SearchPublicAndOwnNotes(ctx context.Context, searchTerm string, page int, firebaseUID string) (*NotePage, error) {
	if page < 0 {
		return nil, validationError("page must not be negative")
	}

	var callerID string
	if firebaseUID != "" {
		user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
		switch {
		case err == nil:
			callerID = user.ID
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	scope := func(db *gorm.DB) *gorm.DB {
		if callerID == "" {
			db = db.Where("is_public = ?", true)
		} else {
			db = db.Where("(is_public = ? OR user_id = ?)", true, callerID)
		}
		return matchTerm(db, searchTerm)
	}

	notes, next, err := s.page(ctx, scope, page, true)
	if err != nil {
		return nil, err
	}

	out := make([]NoteSummary, len(notes))
	for i := range notes {
		n := &notes[i]
		var owner *models.PublicProfile
		if n.User != nil {
			owner = &models.PublicProfile{ID: n.User.ID, Name: n.User.Name}
		}
		out[i] = NoteSummary{NoteID: n.NoteID, Title: n.Title, Content: n.Content, IsPublic: n.IsPublic, UpdatedAt: n.UpdatedAt, User: owner}
	}
	return &NotePage{Notes: out, NextPage: next}, nil
}

// GetOwnNotes pages through the user's notes with content cut to a snippet.
func (s *NoteService) GetOwnNotes(ctx context.Context, userID, searchTerm string, page int) (*NotePage, error) {
	if page < 0 {
		return nil, validationError("page must not be negative")
	}
	user, err := findUserByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	scope := func(db *gorm.DB) *gorm.DB {
		return matchTerm(db.Where("user_id = ?", user.ID), searchTerm)
	}

	notes, next, err := s.page(ctx, scope, page, false)
	if err != nil {
		return nil, err
	}

	out := make([]NoteSummary, len(notes))
	for i := range notes {
		n := &notes[i]
		out[i] = NoteSummary{
			NoteID:    n.NoteID,
			Title:     n.Title,
			Content:   utils.Truncate(n.Content, noteSnippetLength),
			IsPublic:  n.IsPublic,
			UpdatedAt: n.UpdatedAt,
		}
	}
	return &NotePage{Notes: out, NextPage: next}, nil
}

func (s *NoteService) page(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page int, withOwner bool) ([]models.Note, *int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Note{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("count notes: %w", err)
	}

	q := s.db.WithContext(ctx).Model(&models.Note{}).Scopes(scope)
	if withOwner {
		q = q.Preload("User")
	}
	var notes []models.Note
	err := q.Order("updated_at DESC").
		Order("created_at DESC").
		Order("id DESC").
		Offset(page * NotePageSize).
		Limit(NotePageSize).
		Find(&notes).Error
	if err != nil {
		return nil, nil, fmt.Errorf("search notes: %w", err)
	}

	var next *int
	if total > int64((page+1)*NotePageSize) {
		n := page + 1
		next = &n
	}
	return notes, next, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// matchTerm filters on a case-insensitive substring of title, content or
// noteId. The term is literal, whitespace included; only the empty term
// matches everything.
func matchTerm(db *gorm.DB, term string) *gorm.DB {
	if term == "" {
		return db
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	return db.Where(
		`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\' OR LOWER(note_id) LIKE ? ESCAPE '\')`,
		pattern, pattern, pattern,
	)
}

// GetNoteByID returns the note when it is public or owned by userID.
func (s *NoteService) GetNoteByID(ctx context.Context, noteID, userID string) (*NoteDetail, error) {
	var note models.Note
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("note_id = ? AND (user_id = ? OR is_public = ?)", noteID, userID, true).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgNoteMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return newNoteDetail(&note), nil
}

func (s *NoteService) ownedNote(ctx context.Context, userID, noteID string) (*models.User, *models.Note, error) {
	user, err := findUserByID(ctx, s.db, userID)
	if err != nil {
		return nil, nil, err
	}
	var note models.Note
	err = s.db.WithContext(ctx).Where("note_id = ? AND user_id = ?", noteID, user.ID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, nil, notFound(MsgNoteNotFound)
	}
	if err != nil {
		return user, nil, fmt.Errorf("find note: %w", err)
	}
	return user, &note, nil
}

// UpdateNote replaces title, content and visibility. HTML content is stored
// as plain text.
func (s *NoteService) UpdateNote(ctx context.Context, in UpdateNoteInput) (*NoteDetail, error) {
	user, note, err := s.ownedNote(ctx, in.UserID, in.NoteID)
	if err != nil {
		return nil, err
	}

	note.Title = in.Title
	note.Content = utils.HTMLToText(in.Content)
	note.IsPublic = in.IsPublic
	err = s.db.WithContext(ctx).Model(note).Updates(map[string]interface{}{
		"title":     note.Title,
		"content":   note.Content,
		"is_public": note.IsPublic,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	note.User = user
	return newNoteDetail(note), nil
}

func (s *NoteService) RenameNote(ctx context.Context, userID, noteID, title string) (*NoteDetail, error) {
	user, note, err := s.ownedNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	note.Title = title
	if err := s.db.WithContext(ctx).Model(note).Update("title", title).Error; err != nil {
		return nil, fmt.Errorf("rename note: %w", err)
	}
	note.User = user
	return newNoteDetail(note), nil
}

// DeleteNote hard-deletes a note owned by userID.
func (s *NoteService) DeleteNote(ctx context.Context, userID, noteID string) error {
	if _, err := findUserByID(ctx, s.db, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(MsgNoteNotFound)
		}
		return err
	}

	res := s.db.WithContext(ctx).Where("note_id = ? AND user_id = ?", noteID, userID).Delete(&models.Note{})
	if res.Error != nil {
		return fmt.Errorf("delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return unauthorized(MsgNoteNotOwned)
	}
	return nil
}
