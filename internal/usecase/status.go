package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

type statusBoard interface {
	Size() int
	SnapshotOwnership() [][]int
	SnapshotLocks() map[entity.Coord]int
	ScoreTally() map[int]int
}

type statusRoster interface {
	List() []entity.Player
}

type statusRound interface {
	ID() string
	Status() entity.RoundStatus
	Remaining() time.Duration
	Result() *entity.RoundResult
}

type resultArchive interface {
	GetByID(ctx context.Context, id string) (*entity.RoundResult, error)
	Recent(ctx context.Context, limit int) ([]string, error)
}

// StatusService answers read-only questions about the contest for the status API.
type StatusService struct {
	board   statusBoard
	players statusRoster
	round   statusRound
	archive resultArchive
}

// NewStatusService - archive may be nil when results are not archived.
func NewStatusService(board statusBoard, players statusRoster, round statusRound, archive resultArchive) *StatusService {
	return &StatusService{
		board:   board,
		players: players,
		round:   round,
		archive: archive,
	}
}

func (that *StatusService) State() *entity.ServerState {
	locks := that.board.SnapshotLocks()
	lockInfos := make([]entity.LockInfo, 0, len(locks))
	for c, holder := range locks {
		lockInfos = append(lockInfos, entity.LockInfo{Row: c.Row, Col: c.Col, PlayerID: holder})
	}
	sort.Slice(lockInfos, func(i, j int) bool {
		if lockInfos[i].Row != lockInfos[j].Row {
			return lockInfos[i].Row < lockInfos[j].Row
		}
		return lockInfos[i].Col < lockInfos[j].Col
	})

	return &entity.ServerState{
		RoundID:          that.round.ID(),
		Status:           that.round.Status(),
		GridSize:         that.board.Size(),
		RemainingSeconds: int(math.Ceil(that.round.Remaining().Seconds())),
		Players:          that.players.List(),
		Scores:           that.board.ScoreTally(),
		Board:            that.board.SnapshotOwnership(),
		Locks:            lockInfos,
	}
}

// Result - the current round's result once it has ended, otherwise an archived one.
func (that *StatusService) Result(ctx context.Context, id string) (*entity.RoundResult, error) {
	if id == that.round.ID() {
		if result := that.round.Result(); result != nil {
			return result, nil
		}
		return nil, apperror.ErrResultNotFound
	}

	if that.archive == nil {
		return nil, apperror.ErrArchivingDisabled
	}

	return that.archive.GetByID(ctx, id)
}

func (that *StatusService) RecentResults(ctx context.Context, limit int) ([]string, error) {
	if that.archive == nil {
		return nil, apperror.ErrArchivingDisabled
	}

	return that.archive.Recent(ctx, limit)
}
