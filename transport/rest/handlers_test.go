package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

type mockStatus struct {
	mock.Mock
}

func (that *mockStatus) State() *entity.ServerState {
	args := that.Called()
	return args.Get(0).(*entity.ServerState)
}

func (that *mockStatus) Result(ctx context.Context, id string) (*entity.RoundResult, error) {
	args := that.Called(ctx, id)
	result, _ := args.Get(0).(*entity.RoundResult)
	return result, args.Error(1)
}

func (that *mockStatus) RecentResults(ctx context.Context, limit int) ([]string, error) {
	args := that.Called(ctx, limit)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func serve(t *testing.T, status statusService, target string) *httptest.ResponseRecorder {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(NewHandlers(logger, status))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))

	return resp
}

func TestPingHandler(t *testing.T) {
	resp := serve(t, &mockStatus{}, "/ping")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "pong", resp.Body.String())
}

func TestStateHandler(t *testing.T) {
	// Given: a round in progress
	status := &mockStatus{}
	status.On("State").Return(&entity.ServerState{
		RoundID:          "r1",
		Status:           entity.RoundActive,
		GridSize:         2,
		RemainingSeconds: 42,
		Players:          []entity.Player{{ID: 1, Name: "A", Color: "#FF0000"}},
		Scores:           map[int]int{1: 1},
		Board:            [][]int{{1, 0}, {0, 0}},
		Locks:            []entity.LockInfo{{Row: 1, Col: 1, PlayerID: 1}},
	})

	// When: /state is requested
	resp := serve(t, status, "/state")

	// Then: the state is returned as JSON
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "active", body["status"])
	assert.InDelta(t, 42, body["remaining_seconds"], 0)
	assert.Equal(t, map[string]any{"1": float64(1)}, body["scores"])
	status.AssertExpectations(t)
}

func TestResultHandler(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		status := &mockStatus{}
		status.On("Result", mock.Anything, "abc").
			Return(&entity.RoundResult{ID: "abc", Message: "Game Over! No squares claimed."}, nil)

		resp := serve(t, status, "/results/abc")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"message":"Game Over! No squares claimed."`)
	})

	t.Run("Not found", func(t *testing.T) {
		status := &mockStatus{}
		status.On("Result", mock.Anything, "nope").Return(nil, apperror.ErrResultNotFound)

		resp := serve(t, status, "/results/nope")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Archiving disabled", func(t *testing.T) {
		status := &mockStatus{}
		status.On("Result", mock.Anything, "old").Return(nil, apperror.ErrArchivingDisabled)

		resp := serve(t, status, "/results/old")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Storage failure", func(t *testing.T) {
		status := &mockStatus{}
		status.On("Result", mock.Anything, "x").Return(nil, errors.New("redis down"))

		resp := serve(t, status, "/results/x")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestRecentResultsHandler(t *testing.T) {
	t.Run("Default limit", func(t *testing.T) {
		status := &mockStatus{}
		status.On("RecentResults", mock.Anything, defaultRecentLimit).Return([]string{"b", "a"}, nil)

		resp := serve(t, status, "/results")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"ids":["b","a"]}`, resp.Body.String())
	})

	t.Run("Bad limit", func(t *testing.T) {
		resp := serve(t, &mockStatus{}, "/results?limit=zero")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}
