package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	redisChannelPrefix = "bingo:session:"
	controlClose       = "stream_closed"
)

// envelope is the Redis wire form; Control marks stream lifecycle messages
// that carry no event.
type envelope struct {
	SessionID string          `json:"session_id"`
	Kind      Kind            `json:"kind,omitempty"`
	Control   string          `json:"control,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func redisChannel(sessionID string) string {
	return redisChannelPrefix + sessionID
}

// RedisPublisher publishes session events to Redis so that every server
// instance running a Relay can serve the session's streams.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, ev Event) error {
	kind, data, err := Encode(ev)
	if err != nil {
		metricPublishErrorsTotal.Add(1)
		return err
	}
	return p.send(ctx, envelope{SessionID: sessionID, Kind: kind, Data: data})
}

func (p *RedisPublisher) CloseSession(ctx context.Context, sessionID string) error {
	return p.send(ctx, envelope{SessionID: sessionID, Control: controlClose})
}

func (p *RedisPublisher) send(ctx context.Context, env envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, redisChannel(env.SessionID), b).Err(); err != nil {
		metricPublishErrorsTotal.Add(1)
		return fmt.Errorf("redis publish: %w", err)
	}
	metricPublishedTotal.Add(1)
	return nil
}

// Relay copies every session message from Redis into the local hub until ctx
// is cancelled.
func Relay(ctx context.Context, rdb *redis.Client, hub *Hub) error {
	sub := rdb.PSubscribe(ctx, redisChannelPrefix+"*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis psubscribe: %w", err)
	}
	log.Info().Str("pattern", redisChannelPrefix+"*").Msg("broadcast relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			metricRelayMessagesTotal.Add(1)
			if err := hub.apply(msg.Channel, []byte(msg.Payload)); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("drop relay message")
			}
		}
	}
}

func (h *Hub) apply(channel string, payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	if env.SessionID == "" {
		env.SessionID = strings.TrimPrefix(channel, redisChannelPrefix)
	}
	switch {
	case env.Control == controlClose:
		h.Buffer(env.SessionID).Close()
	case env.Kind != "":
		h.appendRaw(env.SessionID, env.Kind, env.Data)
	default:
		return ErrInvalidEvent
	}
	return nil
}
