package entity

// LockInfo is one in-flight lock.
type LockInfo struct {
	Row      int `json:"row"`
	Col      int `json:"col"`
	PlayerID int `json:"player_id"`
}

// ServerState is a point-in-time view of the contest for observers.
type ServerState struct {
	RoundID          string      `json:"round_id"`
	Status           RoundStatus `json:"status"`
	GridSize         int         `json:"grid_size"`
	RemainingSeconds int         `json:"remaining_seconds"`
	Players          []Player    `json:"players"`
	Scores           map[int]int `json:"scores"`
	Board            [][]int     `json:"board"`
	Locks            []LockInfo  `json:"locks"`
}
