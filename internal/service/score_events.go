package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Tanth170203/eduxtend-api/internal/dto"
)

// ScorePublisher fans committed score mutations out to downstream consumers
// (notification workers, websocket gateways). Publishing is best-effort: a
// broker outage never fails the originating request.
type ScorePublisher interface {
	PublishScoreEvent(ctx context.Context, event dto.ScoreEvent)
}

type scorePublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewScorePublisher builds a publisher over Redis pub/sub and NATS. Either
// connection may be nil; the corresponding transport is then skipped.
func NewScorePublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ScorePublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":scores"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".scores"
	}

	return &scorePublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "score_publisher").Logger(),
		now:          time.Now,
	}
}

func (p *scorePublisher) PublishScoreEvent(ctx context.Context, event dto.ScoreEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode score event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("channel", p.redisChannel).Msg("failed to publish score event to redis")
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Str("subject", p.natsSubject).Msg("failed to publish score event to nats")
		}
	}
}
