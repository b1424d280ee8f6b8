package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
)

const (
	chatChannelPrefix   = "chat:"
	chatSubscriberBuf   = 16
	maxSubscribeBackoff = 30 * time.Second
)

// ChatEvent is broadcast over Redis and forwarded to WebSocket clients.
type ChatEvent struct {
	Type      string          `json:"type"`
	ChatID    string          `json:"chatId"`
	Message   *models.Message `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChatHub fans chat events out to local subscribers. With a Redis client,
// events travel through Redis so every instance sees them; without one,
// Publish delivers locally.
type ChatHub struct {
	client *redis.Client
	log    *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[chan ChatEvent]struct{}

	ready     chan struct{}
	readyOnce sync.Once
}

func NewChatHub(client *redis.Client, log *zap.Logger) *ChatHub {
	return &ChatHub{
		client: client,
		log:    log,
		subs:   make(map[string]map[chan ChatEvent]struct{}),
		ready:  make(chan struct{}),
	}
}

// Subscribe registers interest in chatID. The returned func must be called
// to release the subscription; it closes the channel.
func (h *ChatHub) Subscribe(chatID string) (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, chatSubscriberBuf)

	h.mu.Lock()
	if h.subs[chatID] == nil {
		h.subs[chatID] = make(map[chan ChatEvent]struct{})
	}
	h.subs[chatID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[chatID], ch)
			if len(h.subs[chatID]) == 0 {
				delete(h.subs, chatID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish sends event to every subscriber of event.ChatID.
func (h *ChatHub) Publish(ctx context.Context, event ChatEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if h.client == nil {
		h.fanOut(event)
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, chatChannelPrefix+event.ChatID, data).Err()
}

// Ready is closed once the Redis subscriber is listening. It is closed
// immediately by Run when there is no Redis client.
func (h *ChatHub) Ready() <-chan struct{} {
	return h.ready
}

func (h *ChatHub) markReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}

// Run listens on chat:* until ctx is cancelled, reconnecting with backoff.
func (h *ChatHub) Run(ctx context.Context) {
	if h.client == nil {
		h.markReady()
		return
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		err := h.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		h.log.Warn("chat subscriber disconnected", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxSubscribeBackoff {
			backoff = maxSubscribeBackoff
		}
	}
}

func (h *ChatHub) listen(ctx context.Context) error {
	pubsub := h.client.PSubscribe(ctx, chatChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	h.markReady()
	h.log.Info("chat subscriber started", zap.String("pattern", chatChannelPrefix+"*"))

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var event ChatEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.log.Warn("bad chat event payload", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		if event.ChatID == "" {
			event.ChatID = strings.TrimPrefix(msg.Channel, chatChannelPrefix)
		}
		h.fanOut(event)
	}
}

func (h *ChatHub) fanOut(event ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[event.ChatID] {
		select {
		case ch <- event:
		default:
			h.log.Debug("dropping chat event for slow subscriber", zap.String("chat_id", event.ChatID))
		}
	}
}
