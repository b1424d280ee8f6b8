package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

// ActivityMirror receives a copy of every recorded activity.
type ActivityMirror interface {
	Mirror(ctx context.Context, activity *models.Activity) error
}

// ActivityService appends user activity rows and optionally mirrors them.
type ActivityService struct {
	db     *gorm.DB
	mirror ActivityMirror
	log    *zap.Logger

	inflight sync.WaitGroup
}

func NewActivityService(db *gorm.DB, mirror ActivityMirror, log *zap.Logger) *ActivityService {
	return &ActivityService{db: db, mirror: mirror, log: log}
}

// Record stores an activity for userID. The mirror write happens in the
// background and never fails the call.
func (s *ActivityService) Record(ctx context.Context, userID string, typ models.ActivityType, metadata map[string]interface{}) (*models.Activity, error) {
	if !typ.Valid() {
		return nil, validationError("unknown activity type %q", typ)
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	activity := &models.Activity{
		UserID:   userID,
		Type:     typ,
		Metadata: datatypes.JSONMap(metadata),
	}
	if err := s.db.WithContext(ctx).Create(activity).Error; err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	if s.mirror != nil {
		s.inflight.Add(1)
		go func(a models.Activity) {
			defer s.inflight.Done()
			mctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.mirror.Mirror(mctx, &a); err != nil {
				s.log.Warn("activity mirror failed", zap.Uint("activity_id", a.ID), zap.Error(err))
			}
		}(*activity)
	}
	return activity, nil
}

// RecordForFirebaseUID resolves the user first; used by the public endpoint.
func (s *ActivityService) RecordForFirebaseUID(ctx context.Context, firebaseUID string, typ models.ActivityType, metadata map[string]interface{}) (*models.Activity, error) {
	if !typ.Valid() {
		return nil, validationError("unknown activity type %q", typ)
	}
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		return nil, err
	}
	return s.Record(ctx, user.ID, typ, metadata)
}

// Wait blocks until every background mirror write has finished. Call it
// before disconnecting the mirror's store.
func (s *ActivityService) Wait() {
	s.inflight.Wait()
}

// ListForFirebaseUID resolves the user and returns their recent activities.
func (s *ActivityService) ListForFirebaseUID(ctx context.Context, firebaseUID string, limit int) ([]models.Activity, error) {
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		return nil, err
	}
	return s.ListForUser(ctx, user.ID, limit)
}

// ListForUser returns the user's most recent activities, newest first.
func (s *ActivityService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Activity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return out, nil
}
