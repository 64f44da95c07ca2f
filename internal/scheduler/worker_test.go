package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/internal/badges"
	"github.com/pepoapp/trust-engine/internal/suggestions"
	"github.com/pepoapp/trust-engine/internal/trust"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) ListActiveUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockTrustRecomputer struct {
	mock.Mock
	mu       sync.Mutex
	computed []uuid.UUID
}

func (m *MockTrustRecomputer) ComputeTrustScore(ctx context.Context, userID uuid.UUID) (*trust.TrustScore, error) {
	m.mu.Lock()
	m.computed = append(m.computed, userID)
	m.mu.Unlock()
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trust.TrustScore), args.Error(1)
}

func (m *MockTrustRecomputer) computedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.computed)
}

type MockSuggestionGenerator struct {
	mock.Mock
}

func (m *MockSuggestionGenerator) GenerateSuggestions(ctx context.Context, userID uuid.UUID, limit int) ([]*suggestions.FollowSuggestion, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*suggestions.FollowSuggestion), args.Error(1)
}

func (m *MockSuggestionGenerator) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockBadgeEvaluator struct {
	mock.Mock
}

func (m *MockBadgeEvaluator) EvaluateBadges(ctx context.Context, subjectID uuid.UUID, subjectType badges.SubjectType) ([]*badges.BadgeAssignment, error) {
	args := m.Called(ctx, subjectID, subjectType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*badges.BadgeAssignment), args.Error(1)
}

func newTestWorker(users *MockUserLister, trustSvc *MockTrustRecomputer, suggestionSvc *MockSuggestionGenerator, badgeSvc *MockBadgeEvaluator) *Worker {
	return NewWorker(users, trustSvc, suggestionSvc, badgeSvc, time.Minute, 2, 10)
}

func TestRunOnce_ProcessesAllUsers(t *testing.T) {
	users := new(MockUserLister)
	trustSvc := new(MockTrustRecomputer)
	suggestionSvc := new(MockSuggestionGenerator)
	badgeSvc := new(MockBadgeEvaluator)
	w := newTestWorker(users, trustSvc, suggestionSvc, badgeSvc)

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	users.On("ListActiveUserIDs", mock.Anything, userPageSize, 0).Return(ids, nil)
	trustSvc.On("ComputeTrustScore", mock.Anything, mock.Anything).Return(&trust.TrustScore{}, nil)
	suggestionSvc.On("GenerateSuggestions", mock.Anything, mock.Anything, 10).Return([]*suggestions.FollowSuggestion{}, nil)
	badgeSvc.On("EvaluateBadges", mock.Anything, mock.Anything, badges.SubjectUser).Return([]*badges.BadgeAssignment{}, nil)
	suggestionSvc.On("CleanupExpired", mock.Anything).Return(int64(0), nil)

	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, len(ids), trustSvc.computedCount())
	suggestionSvc.AssertNumberOfCalls(t, "GenerateSuggestions", len(ids))
	badgeSvc.AssertNumberOfCalls(t, "EvaluateBadges", len(ids))
	suggestionSvc.AssertNumberOfCalls(t, "CleanupExpired", 1)
}

func TestRunOnce_PagesThroughUsers(t *testing.T) {
	users := new(MockUserLister)
	trustSvc := new(MockTrustRecomputer)
	suggestionSvc := new(MockSuggestionGenerator)
	badgeSvc := new(MockBadgeEvaluator)
	w := newTestWorker(users, trustSvc, suggestionSvc, badgeSvc)

	firstPage := make([]uuid.UUID, userPageSize)
	for i := range firstPage {
		firstPage[i] = uuid.New()
	}
	secondPage := []uuid.UUID{uuid.New()}

	users.On("ListActiveUserIDs", mock.Anything, userPageSize, 0).Return(firstPage, nil)
	users.On("ListActiveUserIDs", mock.Anything, userPageSize, userPageSize).Return(secondPage, nil)
	trustSvc.On("ComputeTrustScore", mock.Anything, mock.Anything).Return(&trust.TrustScore{}, nil)
	suggestionSvc.On("GenerateSuggestions", mock.Anything, mock.Anything, 10).Return([]*suggestions.FollowSuggestion{}, nil)
	badgeSvc.On("EvaluateBadges", mock.Anything, mock.Anything, badges.SubjectUser).Return([]*badges.BadgeAssignment{}, nil)
	suggestionSvc.On("CleanupExpired", mock.Anything).Return(int64(0), nil)

	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, userPageSize+1, trustSvc.computedCount())
	users.AssertExpectations(t)
}

func TestRunOnce_PerUserFailureDoesNotAbort(t *testing.T) {
	users := new(MockUserLister)
	trustSvc := new(MockTrustRecomputer)
	suggestionSvc := new(MockSuggestionGenerator)
	badgeSvc := new(MockBadgeEvaluator)
	w := newTestWorker(users, trustSvc, suggestionSvc, badgeSvc)

	failing := uuid.New()
	healthy := uuid.New()

	users.On("ListActiveUserIDs", mock.Anything, userPageSize, 0).Return([]uuid.UUID{failing, healthy}, nil)
	trustSvc.On("ComputeTrustScore", mock.Anything, failing).Return(nil, errors.New("signal store down"))
	trustSvc.On("ComputeTrustScore", mock.Anything, healthy).Return(&trust.TrustScore{}, nil)
	suggestionSvc.On("GenerateSuggestions", mock.Anything, mock.Anything, 10).Return([]*suggestions.FollowSuggestion{}, nil)
	badgeSvc.On("EvaluateBadges", mock.Anything, mock.Anything, badges.SubjectUser).Return([]*badges.BadgeAssignment{}, nil)
	suggestionSvc.On("CleanupExpired", mock.Anything).Return(int64(0), nil)

	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, 2, trustSvc.computedCount())
	suggestionSvc.AssertNumberOfCalls(t, "GenerateSuggestions", 2)
}

func TestRunOnce_CanceledBeforeStart(t *testing.T) {
	users := new(MockUserLister)
	trustSvc := new(MockTrustRecomputer)
	suggestionSvc := new(MockSuggestionGenerator)
	badgeSvc := new(MockBadgeEvaluator)
	w := newTestWorker(users, trustSvc, suggestionSvc, badgeSvc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.RunOnce(ctx)

	require.ErrorIs(t, err, context.Canceled)
	users.AssertNotCalled(t, "ListActiveUserIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunOnce_CanceledMidRunKeepsPartialProgress(t *testing.T) {
	users := new(MockUserLister)
	trustSvc := new(MockTrustRecomputer)
	suggestionSvc := new(MockSuggestionGenerator)
	badgeSvc := new(MockBadgeEvaluator)
	w := NewWorker(users, trustSvc, suggestionSvc, badgeSvc, time.Minute, 1, 10)

	ctx, cancel := context.WithCancel(context.Background())

	firstPage := make([]uuid.UUID, userPageSize)
	for i := range firstPage {
		firstPage[i] = uuid.New()
	}

	users.On("ListActiveUserIDs", mock.Anything, userPageSize, 0).Return(firstPage, nil)
	trustSvc.On("ComputeTrustScore", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		cancel()
	}).Return(&trust.TrustScore{}, nil)
	suggestionSvc.On("GenerateSuggestions", mock.Anything, mock.Anything, 10).Return([]*suggestions.FollowSuggestion{}, nil)
	badgeSvc.On("EvaluateBadges", mock.Anything, mock.Anything, badges.SubjectUser).Return([]*badges.BadgeAssignment{}, nil)

	err := w.RunOnce(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, trustSvc.computedCount(), userPageSize)
	assert.Greater(t, trustSvc.computedCount(), 0)
	suggestionSvc.AssertNotCalled(t, "CleanupExpired", mock.Anything)
}

func TestWorker_TickTriggersRun(t *testing.T) {
	users := new(MockUserLister)
	trustSvc := new(MockTrustRecomputer)
	suggestionSvc := new(MockSuggestionGenerator)
	badgeSvc := new(MockBadgeEvaluator)
	w := newTestWorker(users, trustSvc, suggestionSvc, badgeSvc)

	ran := make(chan struct{}, 1)
	users.On("ListActiveUserIDs", mock.Anything, userPageSize, 0).Run(func(mock.Arguments) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}).Return([]uuid.UUID{}, nil)
	suggestionSvc.On("CleanupExpired", mock.Anything).Return(int64(0), nil)

	ticks := make(chan time.Time)
	w.wg.Add(1)
	go w.run(context.Background(), ticks, func() {})

	ticks <- time.Now()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not trigger a batch run")
	}

	w.Stop()
}
