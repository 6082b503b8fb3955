package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const RedisChannel = "padaria:events"

// ConnectRedis parses a redis:// URL and checks the server answers.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.MaxRetries = 3

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("Redis connected, events go to", RedisChannel)
	return client, nil
}

// RedisPublisher PUBLISHes events so other processes (web menu, reports) can follow along.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client, channel: RedisChannel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) {
	body, err := json.Marshal(stamp(e))
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		log.Printf("[WARN] redis publish %s failed: %v", e.Type, err)
	}
}
