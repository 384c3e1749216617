package overlay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foomo/contentgraph-site/service/vo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSearcher struct {
	mu     sync.Mutex
	state  vo.LoadState
	search func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error)
	reqs   []vo.SearchRequest
}

func (f *fakeSearcher) Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.search(ctx, req)
}

func (f *fakeSearcher) State() vo.LoadState {
	return f.state
}

func staticSearcher(n int) *fakeSearcher {
	return &fakeSearcher{
		state: vo.LoadStateLoaded,
		search: func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
			return results(n), nil
		},
	}
}

func openSession(t *testing.T, searcher Searcher, opts Options) (*Session, *EventTarget) {
	t.Helper()
	target := NewEventTarget()
	session := NewSession(searcher, target, opts)
	require.NoError(t, session.Open())
	return session, target
}

func TestSessionOpenRequiresLoadedIndex(t *testing.T) {
	for _, state := range []vo.LoadState{vo.LoadStateIdle, vo.LoadStateLoading, vo.LoadStateFailed} {
		target := NewEventTarget()
		session := NewSession(&fakeSearcher{state: state}, target, Options{})
		require.ErrorIs(t, session.Open(), ErrSearchUnavailable, state.String())
		assert.Equal(t, Hidden, session.Snapshot().Visibility)
		assert.Zero(t, target.ListenerCount())
	}
}

func TestSessionOpen(t *testing.T) {
	session, target := openSession(t, staticSearcher(5), Options{})
	select {
	case <-session.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change signalled on open")
	}

	state := session.Snapshot()
	assert.Equal(t, Visible, state.Visibility)
	assert.Equal(t, TargetInput, state.Focus.Kind)
	assert.Equal(t, 2, target.ListenerCount())

	require.NoError(t, session.Open())
	assert.Equal(t, 2, target.ListenerCount())
}

func TestSessionSearchThenClickOutside(t *testing.T) {
	defer goleak.VerifyNone(t)

	searcher := staticSearcher(8)
	session, target := openSession(t, searcher, Options{})
	session.Type("car")
	session.Wait()

	state := session.Snapshot()
	assert.Equal(t, "car", state.Query)
	assert.Equal(t, vo.LoadStateLoaded, state.LoadState)
	assert.Len(t, state.Results, 5)
	assert.Equal(t, []vo.SearchRequest{{Query: "car", MaxResults: 5}}, searcher.reqs)

	target.Dispatch(Event{Type: EventPointerDown, InsideForm: true})
	assert.Equal(t, Visible, session.Snapshot().Visibility)

	target.Dispatch(Event{Type: EventPointerDown, InsideForm: false})
	state = session.Snapshot()
	assert.Equal(t, Hidden, state.Visibility)
	assert.Empty(t, state.Query)
	assert.Empty(t, state.Results)
	assert.Zero(t, target.ListenerCount())
}

func TestSessionDropsStaleResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := map[string]chan []vo.SearchResult{
		"c":  make(chan []vo.SearchResult, 1),
		"ca": make(chan []vo.SearchResult, 1),
	}
	searcher := &fakeSearcher{
		state: vo.LoadStateLoaded,
		search: func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
			return <-release[req.Query], nil
		},
	}
	session, _ := openSession(t, searcher, Options{})

	session.Type("c")
	session.Type("ca")
	release["ca"] <- []vo.SearchResult{{Slug: "cargo", Title: "Cargo"}}
	session.Wait()
	release["c"] <- []vo.SearchResult{{Slug: "c", Title: "C"}, {Slug: "cc", Title: "CC"}}

	state := session.Snapshot()
	assert.Equal(t, "ca", state.Query)
	assert.Equal(t, vo.LoadStateLoaded, state.LoadState)
	assert.Equal(t, []vo.SearchResult{{Slug: "cargo", Title: "Cargo"}}, state.Results)
}

func TestSessionLoadingWhilePending(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	searcher := &fakeSearcher{
		state: vo.LoadStateLoaded,
		search: func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
			<-release
			return results(2), nil
		},
	}
	session, _ := openSession(t, searcher, Options{})
	session.Type("ca")

	state := session.Snapshot()
	assert.Equal(t, "ca", state.Query)
	assert.Equal(t, vo.LoadStateLoading, state.LoadState)
	assert.Empty(t, state.Results)

	close(release)
	session.Wait()
	assert.Equal(t, vo.LoadStateLoaded, session.Snapshot().LoadState)
}

func TestSessionTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	searcher := &fakeSearcher{
		state: vo.LoadStateLoaded,
		search: func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	session, _ := openSession(t, searcher, Options{Timeout: 20 * time.Millisecond})
	session.Type("car")
	session.Wait()

	state := session.Snapshot()
	assert.Equal(t, vo.LoadStateFailed, state.LoadState)
	assert.Empty(t, state.Results)
	assert.Equal(t, "car", state.Query)
}

func TestSessionSearchError(t *testing.T) {
	searcher := &fakeSearcher{
		state: vo.LoadStateLoaded,
		search: func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
			return nil, errors.New("boom")
		},
	}
	session, _ := openSession(t, searcher, Options{})
	session.Type("car")
	session.Wait()

	state := session.Snapshot()
	assert.Equal(t, vo.LoadStateFailed, state.LoadState)
	assert.Empty(t, state.Results)
}

func TestSessionEmptyTextClears(t *testing.T) {
	session, _ := openSession(t, staticSearcher(3), Options{})
	session.Type("car")
	session.Wait()
	session.Type("")

	state := session.Snapshot()
	assert.Equal(t, Visible, state.Visibility)
	assert.Empty(t, state.Query)
	assert.Empty(t, state.Results)
	assert.Equal(t, vo.LoadStateIdle, state.LoadState)
}

func TestSessionClearDropsPendingResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	searcher := &fakeSearcher{
		state: vo.LoadStateLoaded,
		search: func(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error) {
			<-release
			return results(3), nil
		},
	}
	session, _ := openSession(t, searcher, Options{})
	session.Type("car")
	session.Clear()
	session.Wait()
	close(release)

	state := session.Snapshot()
	assert.Empty(t, state.Query)
	assert.Empty(t, state.Results)
	assert.Equal(t, vo.LoadStateIdle, state.LoadState)
}

func TestSessionTypeWhileHidden(t *testing.T) {
	searcher := staticSearcher(3)
	session := NewSession(searcher, NewEventTarget(), Options{})
	session.Type("car")
	session.Wait()

	assert.Empty(t, session.Snapshot().Query)
	assert.Empty(t, searcher.reqs)
}

func TestSessionEscapeCloses(t *testing.T) {
	defer goleak.VerifyNone(t)

	session, target := openSession(t, staticSearcher(3), Options{})
	session.Type("car")
	session.Wait()

	target.Dispatch(Event{Type: EventKeyDown, Key: "Enter"})
	assert.Equal(t, Visible, session.Snapshot().Visibility)

	target.Dispatch(Event{Type: EventKeyDown, Key: KeyEscape})
	state := session.Snapshot()
	assert.Equal(t, Hidden, state.Visibility)
	assert.Empty(t, state.Query)
	assert.Zero(t, target.ListenerCount())
}

func TestSessionArrowKeysMoveFocus(t *testing.T) {
	session, target := openSession(t, staticSearcher(3), Options{})
	session.Type("car")
	session.Wait()

	down := Event{Type: EventKeyDown, Key: KeyArrowDown}
	up := Event{Type: EventKeyDown, Key: KeyArrowUp}

	target.Dispatch(down)
	assert.Equal(t, Target{Kind: TargetResult, Index: 0, Slug: "a"}, session.Snapshot().Focus)
	for range 3 {
		target.Dispatch(down)
	}
	assert.Equal(t, 0, session.Snapshot().Focus.Index)

	target.Dispatch(up)
	assert.Equal(t, 2, session.Snapshot().Focus.Index)
}

func TestSessionNoListenersAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := NewEventTarget()
	session := NewSession(staticSearcher(3), target, Options{})
	for range 3 {
		require.NoError(t, session.Open())
		assert.Equal(t, 2, target.ListenerCount())
		session.Type("car")
		session.Close()
		session.Wait()
		assert.Zero(t, target.ListenerCount())
	}

	session.Close()
	assert.Zero(t, target.ListenerCount())
}
