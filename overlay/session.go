package overlay

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/foomo/contentgraph-site/service/vo"
	"go.uber.org/zap"
)

var ErrSearchUnavailable = errors.New("search is not available yet")

const (
	DefaultMaxResults = 5
	DefaultTimeout    = 5 * time.Second
)

type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "hidden"
}

func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

type State struct {
	Visibility Visibility        `json:"visibility"`
	Query      string            `json:"query"`
	Results    []vo.SearchResult `json:"results"`
	LoadState  vo.LoadState      `json:"loadState"`
	Focus      Target            `json:"focus"`
}

// Searcher is the search capability a session queries. State reports whether
// the capability itself is ready to serve.
type Searcher interface {
	Search(ctx context.Context, req vo.SearchRequest) ([]vo.SearchResult, error)
	State() vo.LoadState
}

type Options struct {
	MaxResults int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Session owns the state of one search overlay. Responses are sequenced:
// only the answer to the most recently issued query is applied, anything
// older is dropped. Key and pointer listeners exist only while visible.
type Session struct {
	searcher   Searcher
	target     *EventTarget
	maxResults int
	timeout    time.Duration
	logger     *zap.Logger

	mu       sync.Mutex
	state    State
	focus    *FocusRoving
	seq      uint64
	cancel   context.CancelFunc
	removers []func()

	changes chan struct{}
	wg      sync.WaitGroup
}

func NewSession(searcher Searcher, target *EventTarget, opts Options) *Session {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Session{
		searcher:   searcher,
		target:     target,
		maxResults: opts.MaxResults,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
		focus:      NewFocusRoving(),
		changes:    make(chan struct{}, 1),
	}
	s.state.Focus = s.focus.Current()
	return s
}

// Changes signals after every state transition. Signals coalesce, read the
// current state with Snapshot.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	state.Results = slices.Clone(s.state.Results)
	state.Focus = s.focus.Current()
	return state
}

// Open shows the overlay, focuses the input and subscribes the key and
// pointer listeners.
func (s *Session) Open() error {
	if s.searcher.State() != vo.LoadStateLoaded {
		return ErrSearchUnavailable
	}
	s.mu.Lock()
	if s.state.Visibility == Visible {
		s.mu.Unlock()
		return nil
	}
	s.state.Visibility = Visible
	s.focus.SetResults(s.state.Results)
	s.removers = append(s.removers,
		s.target.AddListener(EventKeyDown, s.onKeyDown),
		s.target.AddListener(EventPointerDown, s.onPointerDown),
	)
	s.mu.Unlock()
	s.notify()
	return nil
}

// Type sets the query and issues a search for it. Typing while hidden is
// ignored and an empty text clears the session.
func (s *Session) Type(text string) {
	s.mu.Lock()
	if s.state.Visibility != Visible {
		s.mu.Unlock()
		return
	}
	if text == "" {
		s.clearLocked()
		s.mu.Unlock()
		s.notify()
		return
	}

	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.cancel = cancel
	s.state.Query = text
	s.state.LoadState = vo.LoadStateLoading
	s.state.Results = nil
	s.focus.SetResults(nil)
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go s.run(ctx, cancel, seq, vo.SearchRequest{Query: text, MaxResults: s.maxResults})
}

type reply struct {
	results []vo.SearchResult
	err     error
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, seq uint64, req vo.SearchRequest) {
	defer s.wg.Done()
	defer cancel()

	replies := make(chan reply, 1)
	go func() {
		results, err := s.searcher.Search(ctx, req)
		replies <- reply{results: results, err: err}
	}()

	select {
	case r := <-replies:
		s.resolve(seq, r.results, r.err)
	case <-ctx.Done():
		s.resolve(seq, nil, ctx.Err())
	}
}

func (s *Session) resolve(seq uint64, results []vo.SearchResult, err error) {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug("dropping stale search response", zap.Uint64("seq", seq))
		return
	}
	s.cancel = nil
	if err != nil {
		s.logger.Debug("search failed", zap.String("query", s.state.Query), zap.Error(err))
		s.state.LoadState = vo.LoadStateFailed
		s.state.Results = nil
	} else {
		if len(results) > s.maxResults {
			results = results[:s.maxResults]
		}
		s.state.LoadState = vo.LoadStateLoaded
		s.state.Results = slices.Clone(results)
	}
	s.focus.SetResults(s.state.Results)
	s.mu.Unlock()
	s.notify()
}

// Clear drops query and results. A pending response will not be applied.
func (s *Session) Clear() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.notify()
}

// Close clears the session, hides it and removes its listeners.
func (s *Session) Close() {
	s.mu.Lock()
	s.clearLocked()
	s.state.Visibility = Hidden
	removers := s.removers
	s.removers = nil
	s.mu.Unlock()

	for _, remove := range removers {
		remove()
	}
	s.notify()
}

// Wait blocks until no search request of this session is in flight.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) clearLocked() {
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Query = ""
	s.state.Results = nil
	s.state.LoadState = vo.LoadStateIdle
	s.focus.SetResults(nil)
}

func (s *Session) onKeyDown(e Event) {
	switch e.Key {
	case KeyEscape:
		s.Close()
	case KeyArrowDown, KeyArrowUp:
		s.mu.Lock()
		if s.state.Visibility != Visible {
			s.mu.Unlock()
			return
		}
		if e.Key == KeyArrowDown {
			s.focus.Down()
		} else {
			s.focus.Up()
		}
		s.mu.Unlock()
		s.notify()
	}
}

func (s *Session) onPointerDown(e Event) {
	if !e.InsideForm {
		s.Close()
	}
}

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
