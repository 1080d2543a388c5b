package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eth2030/eclipsemonitor/log"
)

// RedisConfig configures a RedisSink. Events go to Channel and heartbeats
// to Channel + ".heartbeat".
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// publisher is the part of the redis client the sink uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisSink publishes JSON messages over Redis pub/sub.
type RedisSink struct {
	client    publisher
	closer    func() error
	channel   string
	heartbeat string
	log       *log.Logger
}

// NewRedisSink connects to Redis and checks the connection.
func NewRedisSink(ctx context.Context, cfg RedisConfig, logger *log.Logger) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     4,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("notify: connect to redis at %s: %w", cfg.Addr, err)
	}
	s := newRedisSink(rdb, cfg.Channel, logger)
	s.closer = rdb.Close
	s.log.Info("connected to redis", "addr", cfg.Addr, "db", cfg.DB, "channel", cfg.Channel)
	return s, nil
}

func newRedisSink(p publisher, channel string, logger *log.Logger) *RedisSink {
	if logger == nil {
		logger = log.Discard()
	}
	return &RedisSink{
		client:    p,
		closer:    func() error { return nil },
		channel:   channel,
		heartbeat: channel + ".heartbeat",
		log:       logger.Module("redis"),
	}
}

func (s *RedisSink) publish(ctx context.Context, channel string, v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, channel, msg).Err(); err != nil {
		s.log.Warn("publish failed", "channel", channel, "err", err)
		return fmt.Errorf("notify: publish to %s: %w", channel, err)
	}
	return nil
}

func (s *RedisSink) PublishEvent(ctx context.Context, e Event) error {
	return s.publish(ctx, s.channel, e)
}

func (s *RedisSink) PublishHeartbeat(ctx context.Context, h Heartbeat) error {
	return s.publish(ctx, s.heartbeat, h)
}

func (s *RedisSink) Close() error { return s.closer() }
