package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

const defaultRecentLimit = 20

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	StateHandler(w http.ResponseWriter, _ *http.Request)
	ResultHandler(w http.ResponseWriter, r *http.Request)
	RecentResultsHandler(w http.ResponseWriter, r *http.Request)
}

type statusService interface {
	State() *entity.ServerState
	Result(ctx context.Context, id string) (*entity.RoundResult, error)
	RecentResults(ctx context.Context, limit int) ([]string, error)
}

type handlers struct {
	logger *slog.Logger
	status statusService
}

func NewHandlers(logger *slog.Logger, status statusService) Handlers {
	return &handlers{
		logger: logger.With("component", "rest"),
		status: status,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Debug("failed to write ping response", "error", err)
	}
}

// StateHandler - current board, roster, scores, locks and countdown.
func (that *handlers) StateHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.status.State())
}

func (that *handlers) ResultHandler(w http.ResponseWriter, r *http.Request) {
	result, err := that.status.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, result)
}

func (that *handlers) RecentResultsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	ids, err := that.status.RecentResults(r.Context(), limit)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, struct {
		IDs []string `json:"ids"`
	}{IDs: ids})
}

func (that *handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrResultNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperror.ErrArchivingDisabled):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		that.logger.Error("failed to serve request", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Debug("failed to encode response", "error", err)
	}
}
