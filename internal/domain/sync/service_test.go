package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"watchkeeper/internal/domain/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing.
// Update returns the stored version configured for the id and runs fn against it.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Update(ctx context.Context, id string, fn UpdateFunc) (watchlist.Item, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return watchlist.Item{}, err
	}

	var current *watchlist.Item
	if v := args.Get(0); v != nil {
		current = v.(*watchlist.Item)
	}
	return fn(current)
}

func (m *MockRepository) Get(ctx context.Context, id string) (*watchlist.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*watchlist.Item), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]watchlist.Item, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]watchlist.Item), args.Error(1)
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testItem(id string, on bool, clock watchlist.VectorClock, by string, at time.Time) watchlist.Item {
	return watchlist.Item{
		ID:            id,
		Title:         "Movie " + id,
		CreatedAt:     t0,
		UpdatedAt:     at,
		IsInWatchlist: on,
		VectorClock:   clock,
		LastUpdatedBy: by,
	}
}

func toggleOp(t *testing.T, it watchlist.Item) watchlist.Operation {
	t.Helper()
	op, err := watchlist.NewToggleOperation(it)
	require.NoError(t, err)
	return op
}

func TestService_ApplyBatch_AdoptsNewItem(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	incoming := testItem("42", false, watchlist.VectorClock{"X": 2}, "X", t0.Add(time.Minute))
	mockRepo.On("Update", mock.Anything, "42").Return(nil, nil)

	resp, err := service.ApplyBatch(context.Background(), SyncRequest{
		Operations: []watchlist.Operation{toggleOp(t, incoming)},
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Rejected)
	require.Len(t, resp.MergedItems, 1)
	assert.Equal(t, incoming, resp.MergedItems[0])

	mockRepo.AssertExpectations(t)
}

func TestService_ApplyBatch_StaleSnapshotKeepsCanonical(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	canonical := testItem("42", true, watchlist.VectorClock{"X": 2, "Y": 1}, "Y", t0)
	stale := testItem("42", false, watchlist.VectorClock{"X": 1}, "X", t0.Add(time.Hour))
	mockRepo.On("Update", mock.Anything, "42").Return(&canonical, nil)

	resp, err := service.ApplyBatch(context.Background(), SyncRequest{
		Operations: []watchlist.Operation{toggleOp(t, stale)},
	})
	require.NoError(t, err)
	require.Len(t, resp.MergedItems, 1)
	assert.Equal(t, canonical, resp.MergedItems[0])

	status, err := statusWith(mockRepo, service, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Conflicts)
}

func TestService_ApplyBatch_ConcurrentCountsConflict(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	canonical := testItem("42", true, watchlist.VectorClock{"X": 1}, "X", t0)
	incoming := testItem("42", true, watchlist.VectorClock{"Y": 1}, "Y", t0.Add(time.Second))
	mockRepo.On("Update", mock.Anything, "42").Return(&canonical, nil)

	resp, err := service.ApplyBatch(context.Background(), SyncRequest{
		Operations: []watchlist.Operation{toggleOp(t, incoming)},
	})
	require.NoError(t, err)
	require.Len(t, resp.MergedItems, 1)
	assert.Equal(t, incoming, resp.MergedItems[0])

	status, err := statusWith(mockRepo, service, resp.MergedItems)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Conflicts)
	assert.Equal(t, int64(1), status.Operations)
	assert.Equal(t, int64(1), status.Batches)
}

func TestService_ApplyBatch_RejectsInvalidOperations(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	valid := testItem("1", true, watchlist.VectorClock{"X": 1}, "X", t0)
	noAuthor := testItem("2", true, watchlist.VectorClock{"X": 1}, "X", t0)
	noAuthor.LastUpdatedBy = ""

	// Пустое название допустимо: это отображаемые данные
	noTitle := testItem("4", true, watchlist.VectorClock{"X": 1}, "X", t0)
	noTitle.Title = ""

	unknown := watchlist.Operation{OpID: "3-op", Type: "rename", Payload: json.RawMessage(`{}`)}

	mockRepo.On("Update", mock.Anything, "1").Return(nil, nil)
	mockRepo.On("Update", mock.Anything, "4").Return(nil, nil)

	resp, err := service.ApplyBatch(context.Background(), SyncRequest{
		Operations: []watchlist.Operation{unknown, toggleOp(t, noAuthor), toggleOp(t, valid), toggleOp(t, noTitle)},
	})
	require.NoError(t, err)

	require.Len(t, resp.MergedItems, 2)
	assert.Equal(t, "1", resp.MergedItems[0].ID)
	assert.Equal(t, "4", resp.MergedItems[1].ID)
	assert.Empty(t, resp.MergedItems[1].Title)

	require.Len(t, resp.Rejected, 2)
	assert.Equal(t, "3-op", resp.Rejected[0].OpID)
	assert.Contains(t, resp.Rejected[0].Error, "unknown operation type")
	assert.Contains(t, resp.Rejected[1].Error, "lastUpdatedBy")

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, "2")
}

func TestService_ApplyBatch_RepositoryError(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	mockRepo.On("Update", mock.Anything, "1").Return(nil, errors.New("database error"))

	_, err := service.ApplyBatch(context.Background(), SyncRequest{
		Operations: []watchlist.Operation{toggleOp(t, testItem("1", true, watchlist.VectorClock{"X": 1}, "X", t0))},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
}

func TestService_ApplyBatch_TouchedSortedByID(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), &ServiceConfig{ResponseMode: ResponseTouched})

	mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil, nil)

	ops := []watchlist.Operation{
		toggleOp(t, testItem("c", true, watchlist.VectorClock{"X": 1}, "X", t0)),
		toggleOp(t, testItem("a", true, watchlist.VectorClock{"X": 1}, "X", t0)),
		toggleOp(t, testItem("b", true, watchlist.VectorClock{"X": 1}, "X", t0)),
	}

	resp, err := service.ApplyBatch(context.Background(), SyncRequest{Operations: ops})
	require.NoError(t, err)
	require.Len(t, resp.MergedItems, 3)
	assert.Equal(t, "a", resp.MergedItems[0].ID)
	assert.Equal(t, "b", resp.MergedItems[1].ID)
	assert.Equal(t, "c", resp.MergedItems[2].ID)
}

func TestService_ApplyBatch_FullMode(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), &ServiceConfig{ResponseMode: ResponseFull})

	incoming := testItem("b", true, watchlist.VectorClock{"X": 1}, "X", t0)
	all := []watchlist.Item{
		testItem("a", false, watchlist.VectorClock{"Y": 3}, "Y", t0),
		incoming,
	}

	mockRepo.On("Update", mock.Anything, "b").Return(nil, nil)
	mockRepo.On("List", mock.Anything).Return(all, nil)

	resp, err := service.ApplyBatch(context.Background(), SyncRequest{
		Operations: []watchlist.Operation{toggleOp(t, incoming)},
	})
	require.NoError(t, err)
	assert.Equal(t, all, resp.MergedItems)

	mockRepo.AssertExpectations(t)
}

func TestService_Status(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	items := []watchlist.Item{
		testItem("a", true, watchlist.VectorClock{"X": 1, "Y": 2}, "Y", t0.Add(time.Hour)),
		testItem("b", false, watchlist.VectorClock{"X": 2}, "X", t0),
		testItem("c", true, watchlist.VectorClock{"Z": 1}, "Z", t0.Add(time.Minute)),
	}
	mockRepo.On("List", mock.Anything).Return(items, nil)

	status, err := service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, status.Items)
	assert.Equal(t, 2, status.InWatchlist)
	assert.Equal(t, 3, status.Devices)
	assert.Equal(t, t0.Add(time.Hour), status.LastUpdate)
}

func TestService_List_Empty(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, slog.Default(), nil)

	mockRepo.On("List", mock.Anything).Return(nil, nil)

	resp, err := service.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestParseResponseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ResponseMode
		wantErr bool
	}{
		{in: "", want: ResponseTouched},
		{in: "touched", want: ResponseTouched},
		{in: "full", want: ResponseFull},
		{in: "everything", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResponseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResponseMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func statusWith(repo *MockRepository, service *Service, items []watchlist.Item) (*Status, error) {
	repo.On("List", mock.Anything).Return(items, nil).Once()
	return service.Status(context.Background())
}
