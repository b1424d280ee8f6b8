package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/internal/services"
)

func TestScoreEndpoint(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "ana")

	code, body := ts.do(t, http.MethodPost, "/eq/score", jsonObject{"firebaseUID": u.FirebaseUID, "answers": []int{5, 5, 5, 5}})
	require.Equal(t, http.StatusOK, code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, float64(100), user["eqScore"])
	assert.Equal(t, models.EQLevelHigh, user["eqLevel"])

	code, body = ts.do(t, http.MethodGet, "/eq/high", nil)
	require.Equal(t, http.StatusOK, code)
	users := body["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].(map[string]interface{})["id"])

	code, _ = ts.do(t, http.MethodPost, "/eq/score", jsonObject{"firebaseUID": u.FirebaseUID, "answers": []int{6}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(t, http.MethodPost, "/eq/score", jsonObject{"firebaseUID": "nobody", "answers": []int{3}})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, services.MsgUserNotFound, body["message"])
}

func TestMoodEndpoints(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "ana")

	code, body := ts.do(t, http.MethodPost, "/eq/mood/check", jsonObject{"firebaseUID": u.FirebaseUID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["moodAdded"])

	code, body = ts.do(t, http.MethodPost, "/eq/mood", jsonObject{"firebaseUID": u.FirebaseUID, "mood": "tired", "moodValue": 0})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), body["mood"].(map[string]interface{})["moodValue"])

	code, body = ts.do(t, http.MethodPost, "/eq/mood/check", jsonObject{"firebaseUID": u.FirebaseUID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["moodAdded"])

	code, body = ts.do(t, http.MethodPost, "/eq/mood", jsonObject{"firebaseUID": u.FirebaseUID, "mood": "tired"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, services.MsgMoodRequired, body["message"])
}

func TestAIChatEndpoint(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "ana")

	code, body := ts.do(t, http.MethodPost, "/eq/chat", jsonObject{
		"message":     "I had a rough day",
		"history":     []jsonObject{{"role": "user", "text": "hi"}, {"role": "model", "text": "hello"}},
		"firebaseUID": u.FirebaseUID,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, jsonObject{"reply": "That sounds hard.", "sentiment": float64(3)}, body)

	var stored models.User
	require.NoError(t, ts.db.First(&stored, "id = ?", u.ID).Error)
	require.NotNil(t, stored.AvgSentiment)
	assert.Equal(t, 3.0, *stored.AvgSentiment)
}

func TestAIChatFailures(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/eq/chat", jsonObject{"message": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, jsonObject{"reply": services.MsgAIMessageMissing, "sentiment": float64(5)}, body)

	ts.coach.err = errors.New("quota exceeded")
	code, body = ts.do(t, http.MethodPost, "/eq/chat", jsonObject{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, jsonObject{"reply": services.CoachFailureReply, "sentiment": float64(5)}, body)
}

func TestTrackActivityEndpoint(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "ana")

	code, body := ts.do(t, http.MethodPost, "/eq/activity", jsonObject{
		"firebaseUID": u.FirebaseUID,
		"type":        "PAGE_VIEW",
		"metadata":    jsonObject{"page": "/journal"},
	})
	require.Equal(t, http.StatusOK, code)
	activity := body["activity"].(map[string]interface{})
	assert.Equal(t, "PAGE_VIEW", activity["type"])

	code, _ = ts.do(t, http.MethodPost, "/eq/activity", jsonObject{"firebaseUID": u.FirebaseUID, "type": "DANCING"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestActivityEndpoint(t *testing.T) {
	ts := newTestServer(t)
	u := ts.seedUser(t, "ana")

	for _, typ := range []string{"PAGE_VIEW", "JOURNAL"} {
		code, _ := ts.do(t, http.MethodPost, "/eq/activity", jsonObject{"firebaseUID": u.FirebaseUID, "type": typ})
		require.Equal(t, http.StatusOK, code)
	}

	code, body := ts.do(t, http.MethodGet, "/eq/activity/"+u.FirebaseUID+"?limit=1", nil)
	require.Equal(t, http.StatusOK, code)
	activities := body["activities"].([]interface{})
	require.Len(t, activities, 1)
	assert.Equal(t, "JOURNAL", activities[0].(map[string]interface{})["type"])

	code, body = ts.do(t, http.MethodGet, "/eq/activity/"+u.FirebaseUID+"?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "limit is invalid.", body["message"])

	code, _ = ts.do(t, http.MethodGet, "/eq/activity/fb-ghost", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
