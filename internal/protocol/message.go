package protocol

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
	"github.com/rocketscienceinc/denyconquer-backend/internal/entity"
)

const separator = "|"

// Client commands.
const (
	CmdConnect      = "CONNECT"
	CmdLockRequest  = "LOCK_REQUEST"
	CmdClaimAttempt = "CLAIM_ATTEMPT"
	CmdReleaseLock  = "RELEASE_LOCK"
	CmdDisconnect   = "DISCONNECT"
)

// Server messages.
const (
	MsgWelcome        = "WELCOME"
	MsgUpdateBoard    = "UPDATE_BOARD"
	MsgUpdatePlayers  = "UPDATE_PLAYERS"
	MsgUpdateScores   = "UPDATE_SCORES"
	MsgLockGranted    = "LOCK_GRANTED"
	MsgLockDenied     = "LOCK_DENIED"
	MsgSquareLocked   = "SQUARE_LOCKED"
	MsgSquareUnlocked = "SQUARE_UNLOCKED"
	MsgTimerUpdate    = "TIMER_UPDATE"
	MsgGameOver       = "GAME_OVER"
	MsgInfo           = "INFO"
	MsgError          = "ERROR"
)

// Command is one decoded client line.
type Command struct {
	Name  string
	Coord entity.Coord
	Text  string
}

// ParseCommand - decodes a client line. CONNECT keeps everything after the
// first separator as the player name.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("%w: empty line", apperror.ErrUnknownCommand)
	}

	name, rest, hasArgs := strings.Cut(line, separator)

	switch name {
	case CmdConnect:
		if !hasArgs {
			return Command{}, fmt.Errorf("%w: %s expects a name", apperror.ErrWrongArity, name)
		}
		return Command{Name: name, Text: strings.TrimSpace(rest)}, nil

	case CmdDisconnect:
		return Command{Name: name}, nil

	case CmdLockRequest, CmdClaimAttempt, CmdReleaseLock:
		if !hasArgs {
			return Command{}, fmt.Errorf("%w: %s expects row and column", apperror.ErrWrongArity, name)
		}

		coord, err := parseCoord(strings.Split(rest, separator))
		if err != nil {
			return Command{}, fmt.Errorf("%s: %w", name, err)
		}

		return Command{Name: name, Coord: coord}, nil

	default:
		return Command{}, fmt.Errorf("%w: %q", apperror.ErrUnknownCommand, name)
	}
}

func parseCoord(fields []string) (entity.Coord, error) {
	if len(fields) != 2 {
		return entity.Coord{}, fmt.Errorf("%w: got %d, want 2", apperror.ErrWrongArity, len(fields))
	}

	row, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return entity.Coord{}, fmt.Errorf("%w: row %q", apperror.ErrBadCoordinate, fields[0])
	}

	col, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return entity.Coord{}, fmt.Errorf("%w: col %q", apperror.ErrBadCoordinate, fields[1])
	}

	return entity.Coord{Row: row, Col: col}, nil
}

func join(fields ...string) string {
	return strings.Join(fields, separator)
}

func Welcome(player entity.Player, gridSize int) string {
	return join(MsgWelcome, strconv.Itoa(player.ID), player.Color, strconv.Itoa(gridSize))
}

func LockGranted(c entity.Coord) string {
	return join(MsgLockGranted, strconv.Itoa(c.Row), strconv.Itoa(c.Col))
}

func LockDenied(c entity.Coord) string {
	return join(MsgLockDenied, strconv.Itoa(c.Row), strconv.Itoa(c.Col))
}

func SquareLocked(c entity.Coord, playerID int) string {
	return join(MsgSquareLocked, strconv.Itoa(c.Row), strconv.Itoa(c.Col), strconv.Itoa(playerID))
}

func SquareUnlocked(c entity.Coord) string {
	return join(MsgSquareUnlocked, strconv.Itoa(c.Row), strconv.Itoa(c.Col))
}

func TimerUpdate(secondsRemaining int) string {
	return join(MsgTimerUpdate, strconv.Itoa(secondsRemaining))
}

func GameOver(text string) string {
	return join(MsgGameOver, text)
}

func Info(text string) string {
	return join(MsgInfo, text)
}

func Error(text string) string {
	return join(MsgError, text)
}

// UpdateBoard - ownership grid as a nested list literal, e.g. [[0, 1], [0, 0]].
func UpdateBoard(grid [][]int) string {
	var sb strings.Builder

	sb.WriteByte('[')
	for r, row := range grid {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('[')
		for c, owner := range row {
			if c > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Itoa(owner))
		}
		sb.WriteByte(']')
	}
	sb.WriteByte(']')

	return join(MsgUpdateBoard, sb.String())
}

// UpdatePlayers - roster keyed by numeric id, e.g. {1: {"name": "A", "color": "#FF0000"}}.
func UpdatePlayers(players []entity.Player) string {
	sorted := append([]entity.Player(nil), players...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var sb strings.Builder

	sb.WriteByte('{')
	for i, player := range sorted {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d: {%s: %s, %s: %s}",
			player.ID,
			strconv.Quote("name"), strconv.Quote(player.Name),
			strconv.Quote("color"), strconv.Quote(player.Color),
		)
	}
	sb.WriteByte('}')

	return join(MsgUpdatePlayers, sb.String())
}

// UpdateScores - owned square count keyed by numeric id, e.g. {1: 2}.
func UpdateScores(scores map[int]int) string {
	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var sb strings.Builder

	sb.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d: %d", id, scores[id])
	}
	sb.WriteByte('}')

	return join(MsgUpdateScores, sb.String())
}
