package session

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Store holds the session's view of the world: a filtered summary list, a
// counts snapshot and the thread of at most one active conversation. The
// list and the active thread are independent resources; refreshing one never
// implicitly touches the other.
type Store struct {
	api    API
	logger *zap.Logger

	mu        sync.Mutex
	filter    StatusFilter
	summaries []ConversationSummary
	total     int
	counts    Counts

	activeID     string
	active       *ConversationSummary
	activeThread []MessageView
	selectGen    uint64

	lastErr error
	onError func(error)
}

// NewStore builds a store over the given API.
func NewStore(api API, logger *zap.Logger) *Store {
	return &Store{api: api, logger: logger, filter: FilterAll}
}

// OnError registers a callback invoked whenever a background refresh fails.
// Failures never propagate to LoadSummaries/LoadCounts callers.
func (s *Store) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// LoadSummaries replaces the filtered list with the latest page. On failure
// the previous list stays intact and the error is reported through the side
// channel; the current list is returned either way. Results arriving after
// the context is cancelled are discarded.
func (s *Store) LoadSummaries(ctx context.Context, filter StatusFilter) []ConversationSummary {
	s.mu.Lock()
	s.filter = filter
	s.mu.Unlock()

	page, err := s.api.ListConversations(ctx, ListFilter{Status: filter})
	if err != nil {
		s.reportError(err)
		return s.Summaries()
	}
	if ctx.Err() != nil {
		return s.Summaries()
	}

	s.mu.Lock()
	if s.filter == filter {
		s.summaries = page.Items
		s.total = page.Total
	}
	s.mu.Unlock()
	return s.Summaries()
}

// LoadCounts refreshes the per-status badge counts. The snapshot is never
// used to populate the visible list.
func (s *Store) LoadCounts(ctx context.Context) Counts {
	counts, err := s.api.Counts(ctx)
	if err != nil {
		s.reportError(err)
		return s.Counts()
	}
	if ctx.Err() != nil {
		return s.Counts()
	}

	s.mu.Lock()
	s.counts = counts
	s.mu.Unlock()
	return counts
}

// SelectActive makes conversationID the active conversation and fetches its
// summary and full thread. The previous active thread is replaced, never
// merged. On failure the previous selection is kept and the error returned.
func (s *Store) SelectActive(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	s.selectGen++
	gen := s.selectGen
	s.mu.Unlock()

	summary, thread, err := s.fetchConversation(ctx, conversationID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectGen != gen {
		// A later selection won the race; drop this result.
		return nil
	}
	s.activeID = conversationID
	s.active = summary
	s.activeThread = thread
	return nil
}

// RefreshActive re-fetches the active conversation's summary and thread so
// the session reflects the authoritative post-operation state.
func (s *Store) RefreshActive(ctx context.Context) error {
	s.mu.Lock()
	id := s.activeID
	gen := s.selectGen
	s.mu.Unlock()
	if id == "" {
		return nil
	}

	summary, thread, err := s.fetchConversation(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectGen != gen || s.activeID != id {
		return nil
	}
	s.active = summary
	s.activeThread = thread
	return nil
}

// ClearActive drops the active selection and its thread.
func (s *Store) ClearActive() {
	s.mu.Lock()
	s.selectGen++
	s.activeID = ""
	s.active = nil
	s.activeThread = nil
	s.mu.Unlock()
}

func (s *Store) fetchConversation(ctx context.Context, id string) (*ConversationSummary, []MessageView, error) {
	summary, err := s.api.GetConversation(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	thread, err := s.api.GetThread(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return summary, thread, nil
}

// Summaries returns the current filtered list.
func (s *Store) Summaries() []ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ConversationSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Total returns the total match count behind the current page.
func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Counts returns the latest badge counts snapshot.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Filter returns the current status filter.
func (s *Store) Filter() StatusFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// ActiveID returns the id of the active conversation, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns the active conversation summary, or nil.
func (s *Store) Active() *ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	active := *s.active
	return &active
}

// ActiveThread returns the active conversation's messages oldest first.
func (s *Store) ActiveThread() []MessageView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MessageView, len(s.activeThread))
	copy(out, s.activeThread)
	return out
}

// LastError returns the most recent background refresh failure.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) reportError(err error) {
	s.mu.Lock()
	s.lastErr = err
	fn := s.onError
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Warn("refresh failed", zap.Error(err))
	}
	if fn != nil {
		fn(err)
	}
}
