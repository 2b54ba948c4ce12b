package session

import (
	"context"
	"strings"
	"sync"

	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// Engine executes lifecycle transitions. Every transition calls exactly one
// server operation; on failure no local state changes. On success the active
// thread and the summary/counts lists are refreshed immediately so the
// agent's own view reflects the transition before the next poll tick.
type Engine struct {
	api   API
	store *Store

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewEngine builds an engine over the API and store.
func NewEngine(api API, store *Store) *Engine {
	return &Engine{api: api, store: store, inFlight: make(map[string]bool)}
}

const (
	opSend     = "send"
	opTransfer = "transfer"
	opClose    = "close"
	opReopen   = "reopen"
)

// SendMessage appends an agent reply to the conversation thread. The status
// never changes; a closed conversation rejects the attempt.
func (e *Engine) SendMessage(ctx context.Context, conversationID, text string, quotedID *string) error {
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("message text is required", nil)
	}
	release, err := e.acquire(opSend)
	if err != nil {
		return err
	}
	defer release()

	if err := e.api.SendMessage(ctx, conversationID, text, quotedID); err != nil {
		return e.handleFailure(ctx, err)
	}
	e.afterTransition(ctx)
	return nil
}

// Transfer routes the conversation to a team queue (no user) or claims it
// for a specific agent (user set).
func (e *Engine) Transfer(ctx context.Context, conversationID, teamID string, userID *string) error {
	if strings.TrimSpace(teamID) == "" {
		return apperrors.NewValidationError("transfer requires a team", nil)
	}
	release, err := e.acquire(opTransfer)
	if err != nil {
		return err
	}
	defer release()

	if err := e.api.Transfer(ctx, conversationID, teamID, userID); err != nil {
		return e.handleFailure(ctx, err)
	}
	e.afterTransition(ctx)
	return nil
}

// Close ends the conversation, keeping the assignee for audit.
func (e *Engine) Close(ctx context.Context, conversationID string, input CloseRequest) error {
	release, err := e.acquire(opClose)
	if err != nil {
		return err
	}
	defer release()

	if err := e.api.Close(ctx, conversationID, input); err != nil {
		return e.handleFailure(ctx, err)
	}
	e.afterTransition(ctx)
	return nil
}

// Reopen returns a closed conversation to in_progress with its prior owner.
func (e *Engine) Reopen(ctx context.Context, conversationID string) error {
	release, err := e.acquire(opReopen)
	if err != nil {
		return err
	}
	defer release()

	if err := e.api.Reopen(ctx, conversationID); err != nil {
		return e.handleFailure(ctx, err)
	}
	e.afterTransition(ctx)
	return nil
}

// acquire takes the per-operation in-flight guard. Two rapid invocations of
// the same operation class must not both execute.
func (e *Engine) acquire(op string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[op] {
		return nil, apperrors.NewConflict("operation already in progress", map[string]any{"operation": op})
	}
	e.inFlight[op] = true
	return func() {
		e.mu.Lock()
		delete(e.inFlight, op)
		e.mu.Unlock()
	}, nil
}

// handleFailure surfaces the server's rejection unchanged. A conflict means
// the server-observed state differs from the local assumption, so the
// affected conversation is re-fetched immediately to resynchronize.
func (e *Engine) handleFailure(ctx context.Context, err error) error {
	if apperrors.IsConflict(err) {
		e.refreshActive(ctx)
	}
	return err
}

func (e *Engine) afterTransition(ctx context.Context) {
	e.refreshActive(ctx)
	e.store.LoadSummaries(ctx, e.store.Filter())
	e.store.LoadCounts(ctx)
}

// refreshActive re-fetches the active conversation. The transition itself
// already succeeded (or was rejected) server-side, so a failed re-fetch must
// not change the operation's outcome; it goes to the store's error side
// channel instead, the same way poll failures do, so the user learns the
// visible thread may be stale.
func (e *Engine) refreshActive(ctx context.Context) {
	if err := e.store.RefreshActive(ctx); err != nil {
		e.store.reportError(err)
	}
}
