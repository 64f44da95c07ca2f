package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetActivitySignals(ctx context.Context, userID uuid.UUID) (*ActivitySignals, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ActivitySignals), args.Error(1)
}

func (m *MockSource) GetFeedbackSignals(ctx context.Context, userID uuid.UUID) (*FeedbackSignals, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*FeedbackSignals), args.Error(1)
}

func (m *MockSource) GetVerificationSignals(ctx context.Context, userID uuid.UUID) (*VerificationSignals, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VerificationSignals), args.Error(1)
}

func (m *MockSource) GetEngagementSignals(ctx context.Context, userID uuid.UUID) (*EngagementSignals, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EngagementSignals), args.Error(1)
}

func (m *MockSource) GetNGOCandidates(ctx context.Context, filter CandidateFilter) ([]*NGOCandidate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*NGOCandidate), args.Error(1)
}

func (m *MockSource) ListActiveUserIDs(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func TestStore_GetActivitySignals_Success(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 3)
	userID := uuid.New()

	expected := &ActivitySignals{UserID: userID, GiveawaysCreated: 4}
	source.On("GetActivitySignals", mock.Anything, userID).Return(expected, nil).Once()

	result, err := store.GetActivitySignals(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, expected, result)
	source.AssertExpectations(t)
}

func TestStore_GetActivitySignals_RetriesThenSucceeds(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 3)
	userID := uuid.New()

	expected := &ActivitySignals{UserID: userID}
	source.On("GetActivitySignals", mock.Anything, userID).Return(nil, errors.New("connection reset")).Twice()
	source.On("GetActivitySignals", mock.Anything, userID).Return(expected, nil).Once()

	result, err := store.GetActivitySignals(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, expected, result)
	source.AssertNumberOfCalls(t, "GetActivitySignals", 3)
}

func TestStore_GetActivitySignals_TransientAfterExhaustion(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 3)
	userID := uuid.New()

	source.On("GetActivitySignals", mock.Anything, userID).Return(nil, errors.New("connection reset"))

	result, err := store.GetActivitySignals(context.Background(), userID)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, common.IsKind(err, common.KindTransientSignal))
	source.AssertNumberOfCalls(t, "GetActivitySignals", 3)
}

func TestStore_GetActivitySignals_NotFoundNotRetried(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 3)
	userID := uuid.New()

	source.On("GetActivitySignals", mock.Anything, userID).
		Return(nil, common.NewNotFoundError("user not found", nil))

	result, err := store.GetActivitySignals(context.Background(), userID)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, common.IsKind(err, common.KindNotFound), "not found must pass through unchanged")
	source.AssertNumberOfCalls(t, "GetActivitySignals", 1)
}

func TestStore_GetFeedbackSignals_TransientAfterExhaustion(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 2)
	userID := uuid.New()

	source.On("GetFeedbackSignals", mock.Anything, userID).Return(nil, errors.New("timeout"))

	result, err := store.GetFeedbackSignals(context.Background(), userID)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, common.IsKind(err, common.KindTransientSignal))
	source.AssertNumberOfCalls(t, "GetFeedbackSignals", 2)
}

func TestStore_GetNGOCandidates_Success(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 3)

	filter := CandidateFilter{City: "Lagos", Limit: 10}
	expected := []*NGOCandidate{{ID: uuid.New(), Name: "Food Bank", City: "Lagos"}}
	source.On("GetNGOCandidates", mock.Anything, filter).Return(expected, nil).Once()

	result, err := store.GetNGOCandidates(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, expected, result)
	source.AssertExpectations(t)
}

func TestStore_ContextCancellationStopsRetries(t *testing.T) {
	source := new(MockSource)
	store := NewStore(source, 5)
	userID := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	source.On("GetVerificationSignals", mock.Anything, userID).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, errors.New("connection reset"))

	result, err := store.GetVerificationSignals(ctx, userID)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.LessOrEqual(t, len(source.Calls), 2, "should stop retrying once the context ends")
}
