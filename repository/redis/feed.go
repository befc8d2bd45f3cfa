package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

// Feed implements both sides of the realtime change channel on Redis
// pub/sub: repositories publish committed mutations, sync coordinators
// subscribe per table/filter pair.
type Feed struct {
	client *redislib.Client
	logger *zap.Logger
}

// NewFeed wraps an established Redis client.
func NewFeed(client *redislib.Client, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{client: client, logger: logger}
}

// Publish sends the event on the channel derived from table and filter.
func (f *Feed) Publish(ctx context.Context, event domain.ChangeEvent, filter string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, channelKey(event.Table, filter), payload).Err()
}

// Subscribe opens a stream of change events for one watched resource.
// StatusSubscribed is emitted once Redis confirms the subscription;
// StatusClosed is emitted when delivery drops for any reason other than an
// explicit Close.
func (f *Feed) Subscribe(ctx context.Context, sub repository.Subscription) (repository.Stream, error) {
	pubsub := f.client.Subscribe(ctx, channelKey(sub.Table, sub.Filter))

	// Wait for the subscription confirmation before handing out the stream.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "subscribe failed", err)
	}

	s := &stream{
		pubsub: pubsub,
		events: make(chan domain.ChangeEvent, 16),
		status: make(chan domain.SubscriptionStatus, 4),
		done:   make(chan struct{}),
		kinds:  kindSet(sub.Events),
		logger: f.logger.With(zap.String("table", sub.Table), zap.String("filter", sub.Filter)),
	}
	go s.run()
	return s, nil
}

type stream struct {
	pubsub *redislib.PubSub
	events chan domain.ChangeEvent
	status chan domain.SubscriptionStatus
	done   chan struct{}
	kinds  map[domain.ChangeKind]struct{}
	logger *zap.Logger
	once   sync.Once
}

func (s *stream) Events() <-chan domain.ChangeEvent        { return s.events }
func (s *stream) Status() <-chan domain.SubscriptionStatus { return s.status }

// Close tears the subscription down. No event or status is delivered after
// Close returns a second time; pending sends are dropped.
func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

func (s *stream) run() {
	defer close(s.events)
	defer close(s.status)

	s.send(domain.StatusSubscribed)

	for msg := range s.pubsub.Channel() {
		var event domain.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			s.logger.Warn("dropping malformed change event", zap.Error(err))
			continue
		}
		if len(s.kinds) > 0 {
			if _, ok := s.kinds[event.Kind]; !ok {
				continue
			}
		}
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}

	// Message channel drained without an explicit Close: the feed dropped.
	s.send(domain.StatusClosed)
}

func (s *stream) send(status domain.SubscriptionStatus) {
	select {
	case <-s.done:
	case s.status <- status:
	default:
		s.logger.Warn("status channel full, dropping", zap.String("status", string(status)))
	}
}

func kindSet(kinds []domain.ChangeKind) map[domain.ChangeKind]struct{} {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[domain.ChangeKind]struct{}, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return set
}

func channelKey(table, filter string) string {
	if filter == "" {
		return fmt.Sprintf("changes:%s", table)
	}
	return fmt.Sprintf("changes:%s:%s", table, filter)
}

var (
	_ repository.ChangeFeed     = (*Feed)(nil)
	_ repository.EventPublisher = (*Feed)(nil)
)
