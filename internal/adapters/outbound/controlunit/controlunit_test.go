package controlunit

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/infrastructure/config"
	"github.com/erickfunier/lumenq/internal/infrastructure/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestSimulatedControlUnit_SetBrightness(t *testing.T) {
	tests := []struct {
		name string
		in   config.SimulationConfig
		want bool // expect failure
	}{
		{
			name: "Given simulation disabled, When setting brightness, Then should always succeed",
			in:   config.SimulationConfig{Enabled: false, FailureRate: 1},
			want: false,
		},
		{
			name: "Given failure rate of one, When setting brightness, Then should always fail",
			in:   config.SimulationConfig{Enabled: true, FailureRate: 1},
			want: true,
		},
		{
			name: "Given failure rate of zero, When setting brightness, Then should always succeed",
			in:   config.SimulationConfig{Enabled: true, FailureRate: 0},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit := NewSimulatedControlUnitWithSource(tt.in, rand.NewSource(1))

			for i := 0; i < 20; i++ {
				err := unit.SetBrightness(context.Background(), 1, 500)
				if tt.want {
					require.Error(t, err)
					assert.Contains(t, simulatedErrors, err.Error())
				} else {
					require.NoError(t, err)
				}
			}
		})
	}
}

func TestSimulatedControlUnit_PartialFailureRate(t *testing.T) {
	// Given
	unit := NewSimulatedControlUnitWithSource(config.SimulationConfig{Enabled: true, FailureRate: 0.5}, rand.NewSource(42))

	// When
	var failures int
	for i := 0; i < 1000; i++ {
		if unit.SetBrightness(context.Background(), 1, 10) != nil {
			failures++
		}
	}

	// Then
	assert.InDelta(t, 500, failures, 100)
}

func TestSimulatedControlUnit_CancelledContext(t *testing.T) {
	unit := NewSimulatedControlUnit(config.SimulationConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := unit.SetBrightness(ctx, 1, 10)

	assert.ErrorIs(t, err, context.Canceled)
}

type commandJob struct {
	queue.Base
}

func (commandJob) JobType() queue.Type { return "test.command" }

// startRedis runs a throwaway Redis container. Skipped with -short since it
// needs Docker.
func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("needs Docker; skipped with -short")
	}

	ctx := context.Background()
	redisCtr, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := redisCtr.Terminate(ctx); err != nil {
			t.Logf("terminate redis container: %v", err)
		}
	})

	url, err := redisCtr.ConnectionString(ctx)
	require.NoError(t, err)
	conn, err := database.NewRedisConnection(config.RedisConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn.Client
}

func TestRedisControlUnit(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	t.Run("Given subscribed gateway, When setting brightness, Then should publish the command", func(t *testing.T) {
		// Given
		channel := "streetlights:commands"
		sub := client.Subscribe(ctx, channel)
		defer sub.Close()
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		unit := NewRedisControlUnit(client, channel)
		job := commandJob{Base: queue.NewBase()}

		// When
		err = unit.SetBrightness(queue.ContextWithJob(ctx, job), 7, 640)

		// Then
		require.NoError(t, err)
		select {
		case msg := <-sub.Channel():
			var cmd Command
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &cmd))
			assert.Equal(t, int64(7), cmd.StreetlightID)
			assert.Equal(t, int64(640), cmd.Lumens)
			assert.Equal(t, job.JobID().String(), cmd.JobID)
		case <-time.After(2 * time.Second):
			t.Fatal("command was not published")
		}
	})

	t.Run("Given no subscriber, When setting brightness, Then should fail", func(t *testing.T) {
		unit := NewRedisControlUnit(client, "streetlights:nobody-listens")

		err := unit.SetBrightness(ctx, 1, 1)

		assert.Error(t, err)
	})
}
