package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

const (
	HighEQThreshold  = 80
	averageThreshold = 50
	maxAnswerValue   = 5

	// bounds the writes that follow a coach reply
	postReplyStoreTimeout = 5 * time.Second
)

var highEQCacheKey = CacheKey("eq", "high")

// HighEQUser is the public projection returned by the high-EQ report.
type HighEQUser struct {
	ID           string    `gorm:"column:id" json:"id"`
	Name         string    `gorm:"column:name" json:"name"`
	Email        string    `gorm:"column:email" json:"email"`
	PhotoURL     string    `gorm:"column:photo_url" json:"photoURL"`
	EQScore      *int      `gorm:"column:eq_score" json:"eqScore"`
	EQLevel      string    `gorm:"column:eq_level" json:"eqLevel"`
	Role         string    `gorm:"column:role" json:"role"`
	AvgSentiment *float64  `gorm:"column:avg_sentiment" json:"avgSentiment"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

type EQOptions struct {
	Location       *time.Location
	CoachTimeout   time.Duration
	HighEQCacheTTL time.Duration
}

// EQService covers quiz scoring, daily moods, the AI coach and the high-EQ report.
type EQService struct {
	db       *gorm.DB
	coach    CoachModel
	cache    *CacheService
	activity *ActivityService
	opts     EQOptions
	now      func() time.Time
	log      *zap.Logger
}

func NewEQService(db *gorm.DB, coach CoachModel, cache *CacheService, activity *ActivityService, opts EQOptions, log *zap.Logger) *EQService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.CoachTimeout <= 0 {
		opts.CoachTimeout = 30 * time.Second
	}
	if opts.HighEQCacheTTL <= 0 {
		opts.HighEQCacheTTL = time.Minute
	}
	return &EQService{
		db:       db,
		coach:    coach,
		cache:    cache,
		activity: activity,
		opts:     opts,
		now:      time.Now,
		log:      log,
	}
}

// SetClock replaces the time source used for mood bookkeeping.
func (s *EQService) SetClock(now func() time.Time) {
	s.now = now
}

// ScoreAnswers converts 1-5 quiz answers into a 0-100 score and level.
func ScoreAnswers(answers []int) (int, string, error) {
	if len(answers) == 0 {
		return 0, "", validationError("answers must contain at least one value")
	}
	total := 0
	for _, a := range answers {
		if a < 1 || a > maxAnswerValue {
			return 0, "", validationError("answers must be between 1 and %d", maxAnswerValue)
		}
		total += a
	}
	score := int(math.Round(float64(total) / float64(len(answers)*maxAnswerValue) * 100))
	return score, EQLevelFor(score), nil
}

// EQLevelFor classifies a score; 100 counts as High.
func EQLevelFor(score int) string {
	switch {
	case score >= HighEQThreshold:
		return models.EQLevelHigh
	case score >= averageThreshold:
		return models.EQLevelAverage
	default:
		return models.EQLevelNeedsImprovement
	}
}

// AddEQ scores the answers and stores the result on the user.
func (s *EQService) AddEQ(ctx context.Context, firebaseUID string, answers []int) (*models.User, error) {
	score, level, err := ScoreAnswers(answers)
	if err != nil {
		return nil, err
	}
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"eq_score": score,
		"eq_level": level,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("save eq score: %w", err)
	}
	user.EQScore = &score
	user.EQLevel = level

	if err := s.cache.Delete(ctx, highEQCacheKey); err != nil {
		s.log.Warn("failed to invalidate high eq cache", zap.Error(err))
	}
	s.recordActivity(ctx, user.ID, models.ActivityEQTest, map[string]interface{}{"eqScore": score, "eqLevel": level})
	return user, nil
}

// dayBounds returns [start of today, start of tomorrow) in the configured zone.
func (s *EQService) dayBounds() (time.Time, time.Time) {
	now := s.now().In(s.opts.Location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.opts.Location)
	return start, start.AddDate(0, 0, 1)
}

func (s *EQService) CheckIfMoodAddedToday(ctx context.Context, firebaseUID string) (bool, error) {
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		return false, err
	}
	start, end := s.dayBounds()

	var count int64
	err = s.db.WithContext(ctx).Model(&models.Mood{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", user.ID, start.UTC(), end.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check mood: %w", err)
	}
	return count > 0, nil
}

// AddMood records a mood. moodValue is a pointer so that 0 stays valid.
func (s *EQService) AddMood(ctx context.Context, firebaseUID, mood string, moodValue *int) (*models.Mood, error) {
	mood = strings.TrimSpace(mood)
	if mood == "" || moodValue == nil {
		return nil, validationError(MsgMoodRequired)
	}
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		return nil, err
	}

	m := &models.Mood{
		UserID:    user.ID,
		Mood:      mood,
		MoodValue: *moodValue,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create mood: %w", err)
	}
	s.recordActivity(ctx, user.ID, models.ActivityMood, map[string]interface{}{"mood": mood, "moodValue": *moodValue})
	return m, nil
}

// ChatWithAI asks the coach model for a reply and folds its sentiment into
// the user's average. Model failures surface as ErrUpstream.
func (s *EQService) ChatWithAI(ctx context.Context, message string, history []Turn, firebaseUID string) (*CoachReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, validationError(MsgAIMessageMissing)
	}

	cctx, cancel := context.WithTimeout(ctx, s.opts.CoachTimeout)
	defer cancel()
	raw, err := s.coach.Reply(cctx, history, message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	reply := ParseCoachReply(raw)

	if firebaseUID == "" {
		return &reply, nil
	}
	sctx, scancel := context.WithTimeout(ctx, postReplyStoreTimeout)
	defer scancel()
	user := s.updateSentiment(sctx, firebaseUID, reply.Sentiment)
	if user == nil {
		return &reply, nil
	}
	meta := map[string]interface{}{"sentiment": reply.Sentiment}
	if matched := ScreenForSelfHarm(message); len(matched) > 0 {
		s.log.Warn("self-harm language in coach conversation", zap.String("user_id", user.ID), zap.Strings("matched", matched))
		meta["flagged"] = true
	}
	s.recordActivity(sctx, user.ID, models.ActivityAIChat, meta)
	return &reply, nil
}

// NextAvgSentiment averages the stored value with the new one; the first
// sample becomes the average.
func NextAvgSentiment(prev *float64, sentiment int) float64 {
	if prev == nil {
		return float64(sentiment)
	}
	return (*prev + float64(sentiment)) / 2
}

// updateSentiment folds sentiment into the user's average and returns the
// user, or nil when it cannot be found. Failures are logged only.
func (s *EQService) updateSentiment(ctx context.Context, firebaseUID string, sentiment int) *models.User {
	user, err := findUserByFirebaseUID(ctx, s.db, firebaseUID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("sentiment lookup failed", zap.Error(err))
		}
		return nil
	}
	avg := NextAvgSentiment(user.AvgSentiment, sentiment)
	if err := s.db.WithContext(ctx).Model(user).Update("avg_sentiment", avg).Error; err != nil {
		s.log.Warn("failed to update avg sentiment", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user
}

// GetHighEQUsers lists users scoring at least HighEQThreshold, served from
// cache when possible.
func (s *EQService) GetHighEQUsers(ctx context.Context) ([]HighEQUser, error) {
	var users []HighEQUser
	if hit, err := s.cache.Get(ctx, highEQCacheKey, &users); err != nil {
		s.log.Warn("high eq cache read failed", zap.Error(err))
	} else if hit {
		return users, nil
	}

	users = []HighEQUser{}
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id", "name", "email", "photo_url", "eq_score", "eq_level", "role", "avg_sentiment", "created_at", "updated_at").
		Where("eq_score >= ?", HighEQThreshold).
		Order("eq_score DESC").
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("high eq users: %w", err)
	}

	if err := s.cache.Set(ctx, highEQCacheKey, users, s.opts.HighEQCacheTTL); err != nil {
		s.log.Warn("high eq cache write failed", zap.Error(err))
	}
	return users, nil
}

// TrackActivity records a client-reported activity for the user.
func (s *EQService) TrackActivity(ctx context.Context, firebaseUID string, typ models.ActivityType, metadata map[string]interface{}) (*models.Activity, error) {
	if s.activity == nil {
		return nil, &Error{Kind: ErrUnavailable, Message: MsgGenericFailure}
	}
	return s.activity.RecordForFirebaseUID(ctx, firebaseUID, typ, metadata)
}

// ListActivity returns the most recent activities of the user, newest first.
func (s *EQService) ListActivity(ctx context.Context, firebaseUID string, limit int) ([]models.Activity, error) {
	if s.activity == nil {
		return nil, &Error{Kind: ErrUnavailable, Message: MsgGenericFailure}
	}
	return s.activity.ListForFirebaseUID(ctx, firebaseUID, limit)
}

func (s *EQService) recordActivity(ctx context.Context, userID string, typ models.ActivityType, meta map[string]interface{}) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, userID, typ, meta); err != nil {
		s.log.Warn("failed to record activity", zap.String("type", string(typ)), zap.Error(err))
	}
}
