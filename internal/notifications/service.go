package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"shortsdub/internal/config"
	"shortsdub/internal/pipeline"
)

// Event classifies a published message.
type Event string

const (
	EventJobCompleted Event = "job_completed"
	EventJobFailed    Event = "job_failed"
)

// Message is the JSON document pushed for each finished job.
type Message struct {
	Event       Event     `json:"event"`
	JobID       string    `json:"job_id"`
	State       string    `json:"state"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	SourceText  string    `json:"source_text,omitempty"`
	TargetText  string    `json:"target_text,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	At          time.Time `json:"at"`
}

// Service defines the notification surface used by the job service.
type Service interface {
	Publish(ctx context.Context, outcome pipeline.Outcome, downloadURL string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// pusher is the subset of the Redis client the publisher needs.
type pusher interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// NewService builds a Redis publisher when configured, or a no-op service.
func NewService(cfg *config.Config) Service {
	addr := strings.TrimSpace(cfg.Notifications.RedisAddr)
	if addr == "" {
		return noopService{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Notifications.RedisPassword,
		DB:       cfg.Notifications.RedisDB,
	})
	return newRedisService(client, cfg.Notifications.RedisList)
}

func newRedisService(client pusher, list string) *redisService {
	return &redisService{client: client, list: strings.TrimSpace(list), now: time.Now}
}

type redisService struct {
	client pusher
	list   string
	now    func() time.Time
}

// Publish pushes one message describing outcome onto the configured list.
func (r *redisService) Publish(ctx context.Context, outcome pipeline.Outcome, downloadURL string) error {
	msg := NewMessage(outcome, downloadURL, r.now())
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := r.client.RPush(ctx, r.list, data).Err(); err != nil {
		return fmt.Errorf("push notification to %s: %w", r.list, err)
	}
	return nil
}

func (r *redisService) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *redisService) Close() error {
	return r.client.Close()
}

// NewMessage converts an outcome into its published form.
func NewMessage(outcome pipeline.Outcome, downloadURL string, at time.Time) Message {
	msg := Message{
		Event:     EventJobCompleted,
		JobID:     outcome.JobID,
		State:     string(outcome.State),
		ElapsedMS: outcome.Elapsed.Milliseconds(),
		At:        at.UTC(),
	}
	if outcome.Succeeded() {
		msg.SourceText = outcome.SourceText
		msg.TargetText = outcome.TargetText
		msg.DownloadURL = downloadURL
		return msg
	}
	msg.Event = EventJobFailed
	msg.FailedStage = string(outcome.FailedStage)
	msg.Error = outcome.Message
	return msg
}

type noopService struct{}

func (noopService) Publish(context.Context, pipeline.Outcome, string) error { return nil }
func (noopService) HealthCheck(context.Context) error                       { return nil }
func (noopService) Close() error                                            { return nil }
