package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/repository"
)

type fakeStream struct {
	events chan domain.ChangeEvent
	status chan domain.SubscriptionStatus

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		events: make(chan domain.ChangeEvent, 8),
		status: make(chan domain.SubscriptionStatus, 4),
	}
}

func (s *fakeStream) Events() <-chan domain.ChangeEvent        { return s.events }
func (s *fakeStream) Status() <-chan domain.SubscriptionStatus { return s.status }

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	close(s.status)
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// drop simulates the feed going away on the remote side.
func (s *fakeStream) drop() {
	s.status <- domain.StatusClosed
	s.Close()
}

type fakeFeed struct {
	mu           sync.Mutex
	streams      []*fakeStream
	subscribeErr error
}

func (f *fakeFeed) Subscribe(ctx context.Context, sub repository.Subscription) (repository.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	stream := newFakeStream()
	f.streams = append(f.streams, stream)
	stream.status <- domain.StatusSubscribed
	return stream, nil
}

func (f *fakeFeed) subscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

func (f *fakeFeed) stream(i int) *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streams[i]
}

func subscription() repository.Subscription {
	return repository.Subscription{Table: domain.TableTasks, Filter: "p1"}
}

func TestManager_ReachesSubscribedState(t *testing.T) {
	feed := &fakeFeed{}
	m := New(feed, subscription(), nil, 20*time.Millisecond, nil)
	defer m.Close()

	m.Start()

	assert.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, feed.subscribeCount())
}

func TestManager_ForwardsEventsToHandler(t *testing.T) {
	feed := &fakeFeed{}
	received := make(chan domain.ChangeEvent, 1)
	m := New(feed, subscription(), func(ctx context.Context, event domain.ChangeEvent) error {
		received <- event
		return nil
	}, 20*time.Millisecond, nil)
	defer m.Close()

	m.Start()
	require.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)

	feed.stream(0).events <- domain.ChangeEvent{Table: domain.TableTasks, Kind: domain.ChangeInsert}

	select {
	case event := <-received:
		assert.Equal(t, domain.ChangeInsert, event.Kind)
	case <-time.After(time.Second):
		t.Fatal("handler never received the event")
	}
}

func TestManager_ClosedFeedRetriesOnceAfterDelay(t *testing.T) {
	feed := &fakeFeed{}
	m := New(feed, subscription(), nil, 20*time.Millisecond, nil)
	defer m.Close()

	m.Start()
	require.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)

	feed.stream(0).drop()

	require.Eventually(t, func() bool {
		return feed.subscribeCount() == 2 && m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)

	// One closure, one retry. No timer storm.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 2, feed.subscribeCount())
}

func TestManager_SubscribeFailureKeepsRetrying(t *testing.T) {
	feed := &fakeFeed{subscribeErr: errors.New("feed unavailable")}
	m := New(feed, subscription(), nil, 10*time.Millisecond, nil)
	defer m.Close()

	m.Start()
	assert.Equal(t, StateConnecting, m.State())

	// Let the feed recover; the pending retry should pick it up.
	time.Sleep(5 * time.Millisecond)
	feed.mu.Lock()
	feed.subscribeErr = nil
	feed.mu.Unlock()

	assert.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)
}

func TestManager_CloseCancelsPendingRetry(t *testing.T) {
	feed := &fakeFeed{}
	m := New(feed, subscription(), nil, 200*time.Millisecond, nil)

	m.Start()
	require.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)

	feed.stream(0).drop()
	require.Eventually(t, func() bool {
		return m.State() == StateClosed
	}, time.Second, 5*time.Millisecond)

	// Teardown before the delay elapses cancels the scheduled attempt.
	m.Close()
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, feed.subscribeCount())
	assert.Equal(t, StateClosed, m.State())
}

func TestManager_CloseReleasesLiveStream(t *testing.T) {
	feed := &fakeFeed{}
	m := New(feed, subscription(), nil, 20*time.Millisecond, nil)

	m.Start()
	require.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)

	m.Close()
	assert.Eventually(t, func() bool {
		return feed.stream(0).isClosed()
	}, time.Second, 5*time.Millisecond)
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	feed := &fakeFeed{}
	m := New(feed, subscription(), nil, 20*time.Millisecond, nil)

	m.Start()
	require.Eventually(t, func() bool {
		return m.State() == StateSubscribed
	}, time.Second, 5*time.Millisecond)

	m.Close()
	m.Close()
	assert.Equal(t, StateClosed, m.State())
	assert.Equal(t, 1, feed.subscribeCount())
}
