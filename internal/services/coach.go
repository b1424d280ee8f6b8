package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const coachSystemInstruction = `You are an emotional wellness coach.
Your role:
- Analyze the user's emotions and mental state.
- Respond with empathy, kindness, and encouragement.
- Guide them gently toward positive reflection and healthy coping strategies.
- Keep replies short, supportive, and conversational (3-5 sentences).

Always respond ONLY with a valid JSON object with exactly two keys:
{"reply": "An empathetic response here.", "sentiment": <number 1-10, 1 = extremely negative, 10 = extremely positive>}

Do not include anything outside this JSON object. No markdown, no explanations, no extra text.`

const (
	DefaultSentiment = 5
	emptyCoachReply  = `{"reply":"Sorry, I didn’t quite get that.","sentiment":5}`

	// CoachFailureReply is returned to clients when the model cannot be reached.
	CoachFailureReply = "⚠️ Error connecting to Gemini. Please try again."
)

// Turn is one prior message in an AI conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// CoachReply is the structured answer shown to the user.
type CoachReply struct {
	Reply     string `json:"reply"`
	Sentiment int    `json:"sentiment"`
}

// CoachModel produces the raw text reply for a conversation.
type CoachModel interface {
	Reply(ctx context.Context, history []Turn, message string) (string, error)
}

// GeminiCoach talks to Gemini through the generative-ai-go client.
type GeminiCoach struct {
	client    *genai.Client
	modelName string
}

func NewGeminiCoach(ctx context.Context, apiKey, modelName string) (*GeminiCoach, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCoach{client: client, modelName: modelName}, nil
}

func (g *GeminiCoach) Close() error {
	return g.client.Close()
}

// Reply sends history plus message as a single chat turn and concatenates
// the text parts of the first candidate. An empty string means the model
// returned no text.
func (g *GeminiCoach) Reply(ctx context.Context, history []Turn, message string) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(coachSystemInstruction)},
	}

	session := model.StartChat()
	session.History = buildCoachHistory(history)

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("gemini SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

func buildCoachHistory(history []Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, h := range history {
		if strings.TrimSpace(h.Text) == "" {
			continue
		}
		out = append(out, &genai.Content{
			Role:  normalizeRole(h.Role),
			Parts: []genai.Part{genai.Text(h.Text)},
		})
	}
	return out
}

// normalizeRole maps anything that is not "user" to the model role.
func normalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), "user") {
		return "user"
	}
	return "model"
}

// ErrCoachUnconfigured is returned by UnconfiguredCoach.
var ErrCoachUnconfigured = errors.New("gemini api key not configured")

// UnconfiguredCoach fails every call; used when no API key is set.
type UnconfiguredCoach struct{}

func (UnconfiguredCoach) Reply(context.Context, []Turn, string) (string, error) {
	return "", ErrCoachUnconfigured
}

// ParseCoachReply decodes the model's JSON answer. Code fences and text
// around the outermost object are ignored. Undecodable text becomes the
// reply itself with a neutral sentiment.
func ParseCoachReply(raw string) CoachReply {
	if strings.TrimSpace(raw) == "" {
		raw = emptyCoachReply
	}

	var decoded struct {
		Reply     *string     `json:"reply"`
		Sentiment json.Number `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &decoded); err != nil || decoded.Reply == nil {
		return CoachReply{Reply: raw, Sentiment: DefaultSentiment}
	}

	sentiment := DefaultSentiment
	if f, err := decoded.Sentiment.Float64(); err == nil {
		sentiment = clampSentiment(int(math.Round(f)))
	}
	return CoachReply{Reply: *decoded.Reply, Sentiment: sentiment}
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	if i, j := strings.Index(s, "{"), strings.LastIndex(s, "}"); i >= 0 && j > i {
		s = s[i : j+1]
	}
	return strings.TrimSpace(s)
}

func clampSentiment(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
