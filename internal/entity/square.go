package entity

import "fmt"

// EmptyOwner marks a square nobody owns yet.
const EmptyOwner = 0

// Coord addresses one square of the grid.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Coord) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// SquareState - exactly one of open, locked or owned.
type SquareState int

const (
	SquareOpen SquareState = iota
	SquareLocked
	SquareOwned
)

func (that SquareState) String() string {
	switch that {
	case SquareOpen:
		return "open"
	case SquareLocked:
		return "locked"
	case SquareOwned:
		return "owned"
	default:
		return "unknown"
	}
}
