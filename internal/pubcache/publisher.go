// Package pubcache publishes cycle summaries and report snapshots to a
// Redis KV cache so dashboards can read the monitor's latest output without
// touching the state file. The cache is an optional side channel: publish
// failures are reported for logging and never affect a cycle.
package pubcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	summaryKey      = "portrep:summary"
	reportKeyPrefix = "portrep:report:"
)

// CycleSummary is the JSON document cached after each monitor cycle.
type CycleSummary struct {
	Mode       string    `json:"mode"`
	At         time.Time `json:"at"`
	BatchSize  int       `json:"batch_size"`
	Active     int       `json:"active"`
	Completed  int       `json:"completed"`
	Adopted    int       `json:"adopted"`
	Evicted    int       `json:"evicted"`
	AlertsSent int       `json:"alerts_sent"`
}

// Publisher writes monitor snapshots into Redis with a TTL.
type Publisher struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a publisher and verifies the connection.
func New(redisURL, redisPassword string, ttl time.Duration, logger *slog.Logger) (*Publisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if redisPassword != "" {
		opt.Password = redisPassword
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Publisher{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "pubcache"),
	}, nil
}

// PublishSummary caches the latest monitor cycle summary.
func (p *Publisher) PublishSummary(ctx context.Context, summary CycleSummary) error {
	return p.set(ctx, summaryKey, summary)
}

// PublishReport caches one port's report snapshot under its own key.
func (p *Publisher) PublishReport(ctx context.Context, portCode string, payload any) error {
	return p.set(ctx, reportKeyPrefix+portCode, payload)
}

func (p *Publisher) set(ctx context.Context, key string, payload any) error {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("json marshal failed: %w", err)
	}

	if err := p.client.Set(ctx, key, jsonBytes, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	p.logger.Debug("snapshot_cached",
		"cache_key", key,
		"ttl_sec", p.ttl.Seconds(),
		"size_bytes", len(jsonBytes),
	)
	return nil
}

// GetSummary returns the cached cycle summary, or nil when none has been
// published within the TTL.
func (p *Publisher) GetSummary(ctx context.Context) (*CycleSummary, error) {
	jsonBytes, err := p.client.Get(ctx, summaryKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}

	var summary CycleSummary
	if err := json.Unmarshal(jsonBytes, &summary); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}
	return &summary, nil
}

// GetReportRaw returns one port's cached report snapshot as raw JSON, or
// nil when absent.
func (p *Publisher) GetReportRaw(ctx context.Context, portCode string) ([]byte, error) {
	jsonBytes, err := p.client.Get(ctx, reportKeyPrefix+portCode).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis GET failed: %w", err)
	}
	return jsonBytes, nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
