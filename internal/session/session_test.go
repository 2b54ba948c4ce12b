package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/domain"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// fakeAPI is an in-memory stand-in for the server, enforcing the same
// guards the real one does.
type fakeAPI struct {
	mu            sync.Mutex
	conversations map[string]*ConversationSummary
	threads       map[string][]MessageView
	teams         []TeamView
	users         []UserView
	quickReplies  []QuickReplyView
	failTransport bool
	failFetch     bool
	listCalls     int
	countCalls    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		conversations: make(map[string]*ConversationSummary),
		threads:       make(map[string][]MessageView),
	}
}

func (f *fakeAPI) addConversation(summary ConversationSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := summary
	f.conversations[summary.ID] = &copied
}

func (f *fakeAPI) ListConversations(_ context.Context, filter ListFilter) (*ConversationPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failTransport {
		return nil, apperrors.NewTransportError("server unreachable", nil)
	}
	page := &ConversationPage{}
	for _, conv := range f.conversations {
		if filter.Status != "" && filter.Status != FilterAll && string(conv.Status) != string(filter.Status) {
			continue
		}
		page.Items = append(page.Items, *conv)
	}
	page.Total = len(page.Items)
	return page, nil
}

func (f *fakeAPI) GetConversation(_ context.Context, id string) (*ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch {
		return nil, apperrors.NewTransportError("server unreachable", nil)
	}
	conv, ok := f.conversations[id]
	if !ok {
		return nil, apperrors.NewNotFound("conversation", nil)
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeAPI) GetThread(_ context.Context, id string) ([]MessageView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]MessageView, len(f.threads[id]))
	copy(out, f.threads[id])
	return out, nil
}

func (f *fakeAPI) Counts(_ context.Context) (Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	if f.failTransport {
		return Counts{}, apperrors.NewTransportError("server unreachable", nil)
	}
	var counts Counts
	for _, conv := range f.conversations {
		switch conv.Status {
		case domain.StatusWaiting:
			counts.Waiting++
		case domain.StatusInProgress:
			counts.InProgress++
		case domain.StatusClosed:
			counts.Closed++
		}
	}
	return counts, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, id, text string, quotedID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return apperrors.NewNotFound("conversation", nil)
	}
	if conv.Status == domain.StatusClosed {
		return apperrors.NewValidationError("conversation is closed", nil)
	}
	f.threads[id] = append(f.threads[id], MessageView{
		ID:              "m" + text,
		FromMe:          true,
		Type:            domain.MessageTypeText,
		Content:         &text,
		QuotedMessageID: quotedID,
		Timestamp:       time.Now(),
	})
	conv.UpdatedAt = time.Now()
	return nil
}

func (f *fakeAPI) Transfer(_ context.Context, id, teamID string, userID *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return apperrors.NewNotFound("conversation", nil)
	}
	if conv.Status == domain.StatusClosed {
		return apperrors.NewConflict("conversation is closed", nil)
	}
	conv.TeamID = &teamID
	conv.AssignedUserID = userID
	if userID != nil {
		conv.Status = domain.StatusInProgress
	} else {
		conv.Status = domain.StatusWaiting
	}
	return nil
}

func (f *fakeAPI) Close(_ context.Context, id string, input CloseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return apperrors.NewNotFound("conversation", nil)
	}
	if conv.Status == domain.StatusClosed {
		return apperrors.NewConflict("conversation already closed", nil)
	}
	now := time.Now()
	conv.Status = domain.StatusClosed
	conv.Classification = input.Classification
	conv.ClosedAt = &now
	return nil
}

func (f *fakeAPI) Reopen(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return apperrors.NewNotFound("conversation", nil)
	}
	if conv.Status != domain.StatusClosed {
		return apperrors.NewConflict("conversation is not closed", nil)
	}
	conv.Status = domain.StatusInProgress
	conv.ClosedAt = nil
	return nil
}

func (f *fakeAPI) UpdateContactName(_ context.Context, _, _ string) error { return nil }

func (f *fakeAPI) ListTeams(_ context.Context) ([]TeamView, error) { return f.teams, nil }

func (f *fakeAPI) ListUsers(_ context.Context) ([]UserView, error) { return f.users, nil }

func (f *fakeAPI) ListQuickReplies(_ context.Context) ([]QuickReplyView, error) {
	return f.quickReplies, nil
}

func (f *fakeAPI) ListClassifications(_ context.Context) ([]ClassificationView, error) {
	return []ClassificationView{{ID: "c1", Name: "Resolved"}}, nil
}

func newSession(t *testing.T) (*fakeAPI, *Store, *Engine) {
	t.Helper()
	api := newFakeAPI()
	store := NewStore(api, zap.NewNop())
	engine := NewEngine(api, store)
	return api, store, engine
}

func strPtr(s string) *string { return &s }

func waitingConversation(id string) ConversationSummary {
	return ConversationSummary{
		ID:          id,
		Protocol:    "ATD20240101120000",
		ContactID:   "contact-1",
		ContactName: "Alice",
		Status:      domain.StatusWaiting,
		TeamID:      strPtr("team-1"),
	}
}

func TestTransferWithoutUserLandsInWaiting(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusInProgress
	conv.AssignedUserID = strPtr("u1")
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))
	require.NoError(t, engine.Transfer(ctx, "x1", "team-2", nil))

	active := store.Active()
	require.NotNil(t, active)
	assert.Equal(t, domain.StatusWaiting, active.Status)
	assert.Nil(t, active.AssignedUserID)
	assert.Equal(t, "team-2", *active.TeamID)
}

func TestTransferWithUserClaimsConversation(t *testing.T) {
	api, store, engine := newSession(t)
	api.addConversation(waitingConversation("x1"))

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))
	require.NoError(t, engine.Transfer(ctx, "x1", "team-1", strPtr("u7")))

	active := store.Active()
	require.NotNil(t, active)
	assert.Equal(t, domain.StatusInProgress, active.Status)
	require.NotNil(t, active.AssignedUserID)
	assert.Equal(t, "u7", *active.AssignedUserID)
}

func TestSendMessageRejectedWhenClosed(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusClosed
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))
	before := store.ActiveThread()

	err := engine.SendMessage(ctx, "x1", "hello", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, before, store.ActiveThread())
}

func TestSendMessageRejectsEmptyDraft(t *testing.T) {
	_, _, engine := newSession(t)
	err := engine.SendMessage(context.Background(), "x1", "   ", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCloseThenReopenPreservesOwner(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusInProgress
	conv.AssignedUserID = strPtr("u1")
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))

	require.NoError(t, engine.Close(ctx, "x1", CloseRequest{Classification: strPtr("Resolved")}))
	active := store.Active()
	require.NotNil(t, active)
	assert.Equal(t, domain.StatusClosed, active.Status)
	assert.Equal(t, "Resolved", *active.Classification)
	require.NotNil(t, active.AssignedUserID)
	assert.Equal(t, "u1", *active.AssignedUserID)

	require.NoError(t, engine.Reopen(ctx, "x1"))
	active = store.Active()
	require.NotNil(t, active)
	assert.Equal(t, domain.StatusInProgress, active.Status)
	assert.Equal(t, "u1", *active.AssignedUserID)
}

func TestDoubleCloseOnClosedConversationConflicts(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusClosed
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))

	err1 := engine.Close(ctx, "x1", CloseRequest{})
	err2 := engine.Close(ctx, "x1", CloseRequest{})
	assert.True(t, apperrors.IsConflict(err1))
	assert.True(t, apperrors.IsConflict(err2))

	active := store.Active()
	require.NotNil(t, active)
	assert.Equal(t, domain.StatusClosed, active.Status)
}

func TestFullLifecycleScenario(t *testing.T) {
	api, store, engine := newSession(t)
	api.addConversation(waitingConversation("x"))

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x"))

	require.NoError(t, engine.Transfer(ctx, "x", "team-1", strPtr("u")))
	active := store.Active()
	assert.Equal(t, domain.StatusInProgress, active.Status)
	assert.Equal(t, "u", *active.AssignedUserID)

	threadBefore := len(store.ActiveThread())
	require.NoError(t, engine.SendMessage(ctx, "x", "hello", nil))
	assert.Len(t, store.ActiveThread(), threadBefore+1)
	assert.Equal(t, domain.StatusInProgress, store.Active().Status)

	require.NoError(t, engine.Close(ctx, "x", CloseRequest{Classification: strPtr("Resolved")}))
	active = store.Active()
	assert.Equal(t, domain.StatusClosed, active.Status)
	assert.Equal(t, "Resolved", *active.Classification)
	assert.Equal(t, "u", *active.AssignedUserID)

	require.NoError(t, engine.Reopen(ctx, "x"))
	active = store.Active()
	assert.Equal(t, domain.StatusInProgress, active.Status)
	assert.Equal(t, "u", *active.AssignedUserID)
}

func TestRefreshFailureAfterTransitionIsReported(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusInProgress
	conv.AssignedUserID = strPtr("u1")
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))

	var reported error
	store.OnError(func(err error) { reported = err })
	api.mu.Lock()
	api.failFetch = true
	api.mu.Unlock()

	// The close itself succeeds server-side; only the follow-up re-fetch
	// fails. The operation must still report success, and the stale view
	// must be signalled through the error side channel.
	require.NoError(t, engine.Close(ctx, "x1", CloseRequest{}))

	assert.True(t, apperrors.IsTransport(reported))
	assert.True(t, apperrors.IsTransport(store.LastError()))
	active := store.Active()
	require.NotNil(t, active)
	assert.Equal(t, domain.StatusInProgress, active.Status)
}

func TestConflictRefreshFailureAfterTransitionIsReported(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusClosed
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))

	var reported error
	store.OnError(func(err error) { reported = err })
	api.mu.Lock()
	api.failFetch = true
	api.mu.Unlock()

	err := engine.Close(ctx, "x1", CloseRequest{})
	assert.True(t, apperrors.IsConflict(err))
	assert.True(t, apperrors.IsTransport(reported))
}

func TestLoadSummariesFailureKeepsPreviousList(t *testing.T) {
	api, store, _ := newSession(t)
	api.addConversation(waitingConversation("x1"))

	ctx := context.Background()
	list := store.LoadSummaries(ctx, FilterWaiting)
	require.Len(t, list, 1)

	var reported error
	store.OnError(func(err error) { reported = err })
	api.mu.Lock()
	api.failTransport = true
	api.mu.Unlock()

	list = store.LoadSummaries(ctx, FilterWaiting)
	assert.Len(t, list, 1)
	assert.True(t, apperrors.IsTransport(reported))
	assert.True(t, apperrors.IsTransport(store.LastError()))
}

func TestCountsIndependentOfFilter(t *testing.T) {
	api, store, _ := newSession(t)
	api.addConversation(waitingConversation("w1"))
	inProgress := waitingConversation("p1")
	inProgress.Status = domain.StatusInProgress
	inProgress.AssignedUserID = strPtr("u1")
	api.addConversation(inProgress)
	closed := waitingConversation("c1")
	closed.Status = domain.StatusClosed
	api.addConversation(closed)

	ctx := context.Background()
	countsAll := store.LoadCounts(ctx)

	list := store.LoadSummaries(ctx, FilterWaiting)
	assert.Len(t, list, 1)
	assert.Equal(t, countsAll, store.Counts())

	store.LoadSummaries(ctx, FilterClosed)
	assert.Equal(t, countsAll, store.Counts())
	assert.Equal(t, Counts{Waiting: 1, InProgress: 1, Closed: 1}, countsAll)
}

func TestSelectReplacesThreadEntirely(t *testing.T) {
	api, store, _ := newSession(t)
	api.addConversation(waitingConversation("a"))
	api.addConversation(waitingConversation("b"))
	api.mu.Lock()
	api.threads["a"] = []MessageView{{ID: "a1"}, {ID: "a2"}}
	api.threads["b"] = []MessageView{{ID: "b1"}}
	api.mu.Unlock()

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "a"))
	require.Len(t, store.ActiveThread(), 2)

	require.NoError(t, store.SelectActive(ctx, "b"))
	thread := store.ActiveThread()
	require.Len(t, thread, 1)
	assert.Equal(t, "b1", thread[0].ID)
	assert.Equal(t, "b", store.ActiveID())
}

func TestPollTickDoesNotChangeActiveSelection(t *testing.T) {
	api, store, _ := newSession(t)
	api.addConversation(waitingConversation("a"))
	api.addConversation(waitingConversation("b"))

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "a"))

	poller := NewPoller(store, 10*time.Millisecond, zap.NewNop())
	poller.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	poller.Stop()

	assert.Equal(t, "a", store.ActiveID())
	api.mu.Lock()
	calls := api.listCalls
	api.mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2)
}

func TestCancelledRefreshIsDiscarded(t *testing.T) {
	api, store, _ := newSession(t)
	api.addConversation(waitingConversation("x1"))

	ctx := context.Background()
	require.Len(t, store.LoadSummaries(ctx, FilterAll), 1)

	api.addConversation(waitingConversation("x2"))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	list := store.LoadSummaries(cancelled, FilterAll)
	assert.Len(t, list, 1)
}

func TestOperationInFlightGuard(t *testing.T) {
	_, _, engine := newSession(t)
	release, err := engine.acquire(opClose)
	require.NoError(t, err)
	defer release()

	_, err = engine.acquire(opClose)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	_, err = engine.acquire(opTransfer)
	assert.NoError(t, err)
}

func TestComposerSendClearsDraftAndQuote(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusInProgress
	conv.AssignedUserID = strPtr("u1")
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))

	composer := NewComposer(engine, store)
	composer.SetDraft("hello")
	composer.InsertEmoji(" :)")
	composer.Quote("m1")

	require.NoError(t, composer.Send(ctx))
	assert.Empty(t, composer.Draft())
	assert.Nil(t, composer.QuotedID())

	thread := store.ActiveThread()
	require.Len(t, thread, 1)
	assert.Equal(t, "hello :)", *thread[0].Content)
	require.NotNil(t, thread[0].QuotedMessageID)
	assert.Equal(t, "m1", *thread[0].QuotedMessageID)
}

func TestComposerSendFailureKeepsDraft(t *testing.T) {
	api, store, engine := newSession(t)
	conv := waitingConversation("x1")
	conv.Status = domain.StatusClosed
	api.addConversation(conv)

	ctx := context.Background()
	require.NoError(t, store.SelectActive(ctx, "x1"))

	composer := NewComposer(engine, store)
	composer.SetDraft("hello")
	composer.Quote("m1")

	err := composer.Send(ctx)
	require.Error(t, err)
	assert.Equal(t, "hello", composer.Draft())
	assert.NotNil(t, composer.QuotedID())
}

func TestComposerInsertQuickReply(t *testing.T) {
	_, store, engine := newSession(t)
	composer := NewComposer(engine, store)
	composer.SetDraft("Hi, ")
	composer.InsertQuickReply(QuickReplyView{Content: "your protocol is open."})
	assert.Equal(t, "Hi, your protocol is open.", composer.Draft())
}

func TestDirectoryDisplayNamePriority(t *testing.T) {
	directory := NewDirectory(newFakeAPI())

	contact := ContactView{PhoneNumber: "5511999990000"}
	assert.Equal(t, "5511999990000", directory.DisplayName(contact))

	contact.PushName = strPtr("Alice")
	assert.Equal(t, "Alice", directory.DisplayName(contact))

	contact.CustomName = strPtr("Alice (VIP)")
	assert.Equal(t, "Alice (VIP)", directory.DisplayName(contact))

	assert.Equal(t, domain.DisplayNameFallback, directory.DisplayName(ContactView{}))
}

func TestRosterTransferTargetsIntersection(t *testing.T) {
	api := newFakeAPI()
	api.teams = []TeamView{
		{ID: "t1", Name: "Support", MemberIDs: []string{"u1", "u3"}},
		{ID: "t2", Name: "Sales", MemberIDs: []string{"u2"}},
	}
	api.users = []UserView{
		{ID: "u1", Name: "Ana"},
		{ID: "u2", Name: "Bruno"},
		{ID: "u3", Name: "Carla"},
	}

	roster := NewRoster(api)
	targets, err := roster.TransferTargets(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "u1", targets[0].ID)
	assert.Equal(t, "u3", targets[1].ID)

	targets, err = roster.TransferTargets(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, targets)
}
