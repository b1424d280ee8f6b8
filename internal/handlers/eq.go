package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

type EQHandler struct {
	eq  *services.EQService
	log *zap.Logger
}

func NewEQHandler(eq *services.EQService, log *zap.Logger) *EQHandler {
	return &EQHandler{eq: eq, log: log}
}

type scoreRequest struct {
	FirebaseUID string `json:"firebaseUID" validate:"required"`
	Answers     []int  `json:"answers"`
}

type firebaseRequest struct {
	FirebaseUID string `json:"firebaseUID" validate:"required"`
}

type moodRequest struct {
	FirebaseUID string `json:"firebaseUID"`
	Mood        string `json:"mood" validate:"required"`
	MoodValue   *int   `json:"moodValue" validate:"required"`
}

type aiChatRequest struct {
	Message     string          `json:"message" validate:"required"`
	History     []services.Turn `json:"history"`
	FirebaseUID string          `json:"firebaseUID"`
}

type activityRequest struct {
	FirebaseUID string                 `json:"firebaseUID" validate:"required"`
	Type        string                 `json:"type" validate:"required"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// Score handles POST /eq/score.
func (h *EQHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	user, err := h.eq.AddEQ(ctx, req.FirebaseUID, req.Answers)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "user", user)
}

// MoodCheck handles POST /eq/mood/check.
func (h *EQHandler) MoodCheck(w http.ResponseWriter, r *http.Request) {
	var req firebaseRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	added, err := h.eq.CheckIfMoodAddedToday(ctx, req.FirebaseUID)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "moodAdded", added)
}

// AddMood handles POST /eq/mood.
func (h *EQHandler) AddMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := decode(w, r, &req, services.MsgMoodRequired); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	mood, err := h.eq.AddMood(ctx, req.FirebaseUID, req.Mood, req.MoodValue)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "mood", mood)
}

// Chat handles POST /eq/chat. Unlike the other routes it always answers
// with a bare {reply, sentiment} so the client can render the reply as-is.
func (h *EQHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req aiChatRequest
	if err := decode(w, r, &req, services.MsgAIMessageMissing); err != nil {
		writeJSON(w, http.StatusBadRequest, services.CoachReply{Reply: clientMessage(err), Sentiment: services.DefaultSentiment})
		return
	}

	reply, err := h.eq.ChatWithAI(r.Context(), req.Message, req.History, req.FirebaseUID)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, services.CoachReply{Reply: clientMessage(err), Sentiment: services.DefaultSentiment})
			return
		}
		requestLogger(h.log, r).Error("coach reply failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, services.CoachReply{Reply: services.CoachFailureReply, Sentiment: services.DefaultSentiment})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// HighEQ handles GET /eq/high.
func (h *EQHandler) HighEQ(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeContext(r)
	defer cancel()

	users, err := h.eq.GetHighEQUsers(ctx)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "users", users)
}

// TrackActivity handles POST /eq/activity.
func (h *EQHandler) TrackActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decode(w, r, &req, ""); err != nil {
		fail(w, r, h.log, err)
		return
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	activity, err := h.eq.TrackActivity(ctx, req.FirebaseUID, models.ActivityType(req.Type), req.Metadata)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "activity", activity)
}

// Activity handles GET /eq/activity/{firebaseUID}?limit=N.
func (h *EQHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(w, r, h.log, &services.Error{Kind: services.ErrValidation, Message: "limit is invalid."})
			return
		}
		limit = n
	}
	ctx, cancel := storeContext(r)
	defer cancel()

	activities, err := h.eq.ListActivity(ctx, chi.URLParam(r, "firebaseUID"), limit)
	if err != nil {
		fail(w, r, h.log, err)
		return
	}
	ok(w, "activities", activities)
}
