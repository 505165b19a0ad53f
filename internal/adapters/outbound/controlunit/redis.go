package controlunit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
	"github.com/redis/go-redis/v9"
)

// Command is the message published for every brightness change
type Command struct {
	StreetlightID int64     `json:"streetlightId"`
	Lumens        int64     `json:"lumens"`
	JobID         string    `json:"jobId,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// RedisControlUnit implements streetlight.ControlUnit by publishing commands
// on a Redis channel that the field gateways subscribe to
type RedisControlUnit struct {
	client  *redis.Client
	channel string
}

// NewRedisControlUnit creates a new Redis control unit
func NewRedisControlUnit(client *redis.Client, channel string) *RedisControlUnit {
	return &RedisControlUnit{
		client:  client,
		channel: channel,
	}
}

// SetBrightness implements streetlight.ControlUnit.
// It fails when no gateway is subscribed, since nobody would act on it.
func (u *RedisControlUnit) SetBrightness(ctx context.Context, id int64, lumens int64) error {
	cmd := Command{
		StreetlightID: id,
		Lumens:        lumens,
		IssuedAt:      time.Now().UTC(),
	}
	if job, ok := queue.JobFromContext(ctx); ok {
		cmd.JobID = job.JobID().String()
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	receivers, err := u.client.Publish(ctx, u.channel, data).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", u.channel, err)
	}
	if receivers == 0 {
		return fmt.Errorf("no control gateway subscribed to %s", u.channel)
	}

	logging.FromContext(ctx).DebugContext(ctx, "Published brightness command",
		slog.String("channel", u.channel),
		slog.Int64("receivers", receivers),
	)
	return nil
}
