package round

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
	"github.com/rocketscienceinc/denyconquer-backend/internal/registry"
)

const archiveTimeout = 5 * time.Second

const shutdownNotice = "Server is shutting down."

type boardState interface {
	IsFull() bool
	ScoreTally() map[int]int
	Freeze()
}

type roster interface {
	Name(id int) string
	Close()
}

type notifier interface {
	BroadcastTimer(secondsRemaining int)
	BroadcastGameOver(text string)
	BroadcastInfo(text string, exclude registry.Sender)
}

type archive interface {
	Save(ctx context.Context, result *entity.RoundResult) error
}

type Options struct {
	Duration      time.Duration
	TimerInterval time.Duration
	ShutdownGrace time.Duration
	// Shutdown runs once the grace period after the round end has elapsed.
	Shutdown func()
	// Archive is optional.
	Archive archive
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller owns the round lifecycle: not started until the first granted
// lock, active while the countdown runs, ended once the board is full or the
// countdown expires.
type Controller struct {
	logger   *slog.Logger
	board    boardState
	players  roster
	notifier notifier
	opts     Options

	mu        sync.Mutex
	id        string
	status    entity.RoundStatus
	startedAt time.Time
	result    *entity.RoundResult

	started chan struct{}
	ended   chan struct{}
}

func New(logger *slog.Logger, board boardState, players roster, notifier notifier, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.TimerInterval <= 0 {
		opts.TimerInterval = time.Second
	}

	return &Controller{
		logger:   logger.With("component", "round"),
		board:    board,
		players:  players,
		notifier: notifier,
		opts:     opts,
		id:       uuid.NewString(),
		status:   entity.RoundNotStarted,
		started:  make(chan struct{}),
		ended:    make(chan struct{}),
	}
}

func (that *Controller) ID() string {
	return that.id
}

func (that *Controller) Status() entity.RoundStatus {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// Ended - closed once the round is over.
func (that *Controller) Ended() <-chan struct{} {
	return that.ended
}

// Result - outcome of the round, nil until it has ended.
func (that *Controller) Result() *entity.RoundResult {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.result
}

// Remaining - time left on the countdown.
func (that *Controller) Remaining() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.remainingLocked()
}

func (that *Controller) remainingLocked() time.Duration {
	switch that.status {
	case entity.RoundNotStarted:
		return that.opts.Duration
	case entity.RoundEnded:
		return 0
	default:
		left := that.opts.Duration - that.opts.Now().Sub(that.startedAt)
		if left < 0 {
			return 0
		}
		return left
	}
}

// OnLockGranted - starts the countdown on the first granted lock of the round.
func (that *Controller) OnLockGranted() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status != entity.RoundNotStarted {
		return
	}

	that.status = entity.RoundActive
	that.startedAt = that.opts.Now()
	close(that.started)

	that.logger.Info("round started", "roundID", that.id, "duration", that.opts.Duration)
}

// CheckEnd - ends the round if the board is fully owned. Reports whether the round is over.
func (that *Controller) CheckEnd() bool {
	if that.board.IsFull() {
		that.end(entity.EndReasonBoardFull)
	}

	return that.Status().IsEnded()
}

// Run - drives the countdown, then waits out the shutdown grace period.
func (that *Controller) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-that.ended:
	case <-that.started:
		that.countdown(ctx)
	}

	select {
	case <-ctx.Done():
		return nil
	case <-that.ended:
	}

	that.logger.Info("shutting down after grace period", "grace", that.opts.ShutdownGrace)

	timer := time.NewTimer(that.opts.ShutdownGrace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		that.notifier.BroadcastInfo(shutdownNotice, nil)

		if that.opts.Shutdown != nil {
			that.opts.Shutdown()
		}
	}

	return nil
}

func (that *Controller) countdown(ctx context.Context) {
	ticker := time.NewTicker(that.opts.TimerInterval)
	defer ticker.Stop()

	that.notifier.BroadcastTimer(seconds(that.Remaining()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-that.ended:
			return
		case <-ticker.C:
			left := that.Remaining()
			that.notifier.BroadcastTimer(seconds(left))

			if left <= 0 {
				that.end(entity.EndReasonTimeUp)
				return
			}
		}
	}
}

func (that *Controller) end(reason string) {
	that.mu.Lock()
	if that.status == entity.RoundEnded {
		that.mu.Unlock()
		return
	}

	if that.status == entity.RoundNotStarted {
		that.startedAt = that.opts.Now()
	}

	that.status = entity.RoundEnded
	startedAt := that.startedAt
	that.mu.Unlock()

	that.board.Freeze()
	that.players.Close()

	result := BuildResult(that.board.ScoreTally(), that.players.Name)
	result.ID = that.id
	result.Reason = reason
	result.StartedAt = startedAt
	result.EndedAt = that.opts.Now()

	that.mu.Lock()
	that.result = result
	that.mu.Unlock()

	close(that.ended)

	that.logger.Info("round ended", "roundID", that.id, "reason", reason, "result", result.Message)
	that.notifier.BroadcastGameOver(result.Message)

	that.archive(result)
}

func (that *Controller) archive(result *entity.RoundResult) {
	if that.opts.Archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := that.opts.Archive.Save(ctx, result); err != nil {
		that.logger.Error("failed to archive round result", "roundID", result.ID, "error", err)
	}
}

// BuildResult - picks every player with the top score and phrases the announcement.
func BuildResult(scores map[int]int, nameOf func(id int) string) *entity.RoundResult {
	result := &entity.RoundResult{Scores: make(map[int]int, len(scores))}

	for id, score := range scores {
		result.Scores[id] = score
		if score > result.TopScore {
			result.TopScore = score
		}
	}

	if result.TopScore == 0 {
		result.Message = "Game Over! No squares claimed."
		return result
	}

	var ids []int
	for id, score := range scores {
		if score == result.TopScore {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := nameOf(id)
		names = append(names, name)
		result.Winners = append(result.Winners, entity.Player{ID: id, Name: name})
	}

	if len(names) == 1 {
		result.Message = fmt.Sprintf("Game Over! %s wins with %d squares!", names[0], result.TopScore)
	} else {
		result.Message = fmt.Sprintf("Game Over! It's a tie between %s with %d squares!",
			strings.Join(names, ", "), result.TopScore)
	}

	return result
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
