package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRelay shares hub publishes between server instances over a redis
// pub/sub channel. Each instance still delivers only to its own sockets.
type RedisRelay struct {
	client  *redis.Client
	channel string
	queue   chan Envelope
}

// NewRedisRelay connects to redisURL and checks the connection.
func NewRedisRelay(redisURL, channel string) (*RedisRelay, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisRelay{
		client:  client,
		channel: channel,
		queue:   make(chan Envelope, 1000),
	}, nil
}

// Forward queues env for publishing without blocking the caller. When the
// queue is full the envelope is dropped.
func (r *RedisRelay) Forward(env Envelope) {
	select {
	case r.queue <- env:
	default:
		log.Printf("[relay] queue full, dropping %s %s", env.Scope, env.Key)
	}
}

// Start subscribes to the channel, attaches the relay to hub and runs the
// publish and receive loops until ctx is done.
func (r *RedisRelay) Start(ctx context.Context, hub *Hub) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	hub.SetRelay(r)

	go r.publishLoop(ctx)
	go r.receiveLoop(ctx, pubsub, hub)
	return nil
}

func (r *RedisRelay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.queue:
			payload, err := json.Marshal(env)
			if err != nil {
				log.Printf("[relay] encode envelope: %v", err)
				continue
			}
			if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
				log.Printf("[relay] publish: %v", err)
			}
		}
	}
}

func (r *RedisRelay) receiveLoop(ctx context.Context, pubsub *redis.PubSub, hub *Hub) {
	defer pubsub.Close()
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("[relay] decode envelope: %v", err)
				continue
			}
			hub.receive(env)
		}
	}
}

func (r *RedisRelay) Close() error {
	return r.client.Close()
}
