package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

const avatarFolder = "eq-journal/avatars"

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder string) (string, error)
}

func findUserByID(ctx context.Context, db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

func findUserByFirebaseUID(ctx context.Context, db *gorm.DB, uid string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("firebase_uid = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user by firebase uid: %w", err)
	}
	return &user, nil
}

type SyncUserInput struct {
	FirebaseUID string
	Name        string
	Email       string
	PhotoURL    string
}

type UserService struct {
	db       *gorm.DB
	uploader ImageUploader
	log      *zap.Logger
}

// NewUserService returns a UserService. uploader may be nil, in which case
// photo uploads report ErrUnavailable.
func NewUserService(db *gorm.DB, uploader ImageUploader, log *zap.Logger) *UserService {
	return &UserService{db: db, uploader: uploader, log: log}
}

// Sync creates the user on first sign-in and refreshes the profile fields
// that are present on later calls.
func (s *UserService) Sync(ctx context.Context, in SyncUserInput) (*models.User, error) {
	in.FirebaseUID = strings.TrimSpace(in.FirebaseUID)
	if in.FirebaseUID == "" {
		return nil, validationError("firebaseUID is required")
	}

	user := models.User{
		ID:          uuid.NewString(),
		FirebaseUID: in.FirebaseUID,
		Name:        in.Name,
		Email:       in.Email,
		PhotoURL:    in.PhotoURL,
		Role:        models.RoleUser,
	}

	columns := []string{"updated_at"}
	if in.Name != "" {
		columns = append(columns, "name")
	}
	if in.Email != "" {
		columns = append(columns, "email")
	}
	if in.PhotoURL != "" {
		columns = append(columns, "photo_url")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "firebase_uid"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&user).Error
	if err != nil {
		return nil, fmt.Errorf("sync user: %w", err)
	}
	return findUserByFirebaseUID(ctx, s.db, in.FirebaseUID)
}

func (s *UserService) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return findUserByFirebaseUID(ctx, s.db, uid)
}

// UploadPhoto stores file as the user's avatar and saves its URL.
func (s *UserService) UploadPhoto(ctx context.Context, firebaseUID string, file io.Reader) (*models.User, error) {
	if s.uploader == nil {
		return nil, &Error{Kind: ErrUnavailable, Message: MsgUploadsDisabled}
	}
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		return nil, err
	}

	url, err := s.uploader.UploadImage(ctx, file, avatarFolder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("photo_url", url).Error; err != nil {
		return nil, fmt.Errorf("save photo url: %w", err)
	}
	user.PhotoURL = url
	s.log.Info("user photo updated", zap.String("user_id", user.ID))
	return user, nil
}
