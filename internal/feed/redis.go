package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/sweedalp/smart-bookmark-app/internal/logger"
	"github.com/sweedalp/smart-bookmark-app/internal/metrics"
	redisstore "github.com/sweedalp/smart-bookmark-app/internal/store/redis"
)

// RedisFeed implements Feed on Redis Pub/Sub, one channel per owner.
type RedisFeed struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedis creates a Redis-backed feed.
func NewRedis(client *redis.Client, log logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, log: log}
}

// Publish sends ev on the owner's channel.
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	err = f.client.Publish(ctx, redisstore.FeedChannel(ev.Owner()), payload).Err()
	metrics.RecordPublish(string(ev.Type), err)
	if err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription and waits for Redis to confirm it, so any
// event published after Subscribe returns is delivered.
//
// The subscription is closed when ctx is done.
func (f *RedisFeed) Subscribe(ctx context.Context, filter Filter) (Subscription, error) {
	var ps *redis.PubSub
	if filter.Owner == "" {
		ps = f.client.PSubscribe(ctx, redisstore.FeedPattern())
	} else {
		ps = f.client.Subscribe(ctx, redisstore.FeedChannel(filter.Owner))
	}

	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to feed: %w", err)
	}

	sub := &redisSubscription{
		ps:      ps,
		filter:  filter,
		log:     f.log,
		events:  make(chan Event),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go sub.forward(ps.Channel())
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	filter Filter
	log    logger.Logger

	events  chan Event
	done    chan struct{}
	stopped chan struct{}

	once sync.Once
	err  error
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
		<-s.stopped
	})
	return s.err
}

func (s *redisSubscription) forward(in <-chan *redis.Message) {
	defer close(s.stopped)
	defer close(s.events)

	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			ev, ok := s.decode(msg)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
				metrics.FeedDelivered.WithLabelValues(string(ev.Type)).Inc()
			case <-s.done:
				return
			}
		}
	}
}

// decode parses a message and drops anything malformed or not addressed to
// the channel it arrived on.
func (s *redisSubscription) decode(msg *redis.Message) (Event, bool) {
	var ev Event
	if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
		s.log.Warn("dropping undecodable feed message",
			logger.String("channel", msg.Channel),
			logger.Error(err))
		return Event{}, false
	}
	if err := ev.Validate(); err != nil {
		s.log.Warn("dropping malformed feed event",
			logger.String("channel", msg.Channel),
			logger.String("type", string(ev.Type)))
		return Event{}, false
	}

	owner, err := redisstore.ExtractFeedOwner(msg.Channel)
	if err != nil || owner != ev.Owner() {
		s.log.Warn("dropping feed event with mismatched owner",
			logger.String("channel", msg.Channel))
		return Event{}, false
	}
	if s.filter.Owner != "" && owner != s.filter.Owner {
		return Event{}, false
	}
	return ev, true
}
