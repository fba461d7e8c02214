package entity

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownRoundStatus = errors.New("unknown round status")

type RoundStatus string

const (
	RoundNotStarted RoundStatus = "not_started"
	RoundActive     RoundStatus = "active"
	RoundEnded      RoundStatus = "ended"
)

const (
	EndReasonBoardFull = "board_full"
	EndReasonTimeUp    = "time_up"
)

func (that RoundStatus) IsEnded() bool {
	return that == RoundEnded
}

func (that RoundStatus) Validate() error {
	switch that {
	case RoundNotStarted, RoundActive, RoundEnded:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoundStatus, string(that))
	}
}

// RoundResult is the outcome of a finished round.
type RoundResult struct {
	ID        string      `json:"id"`
	Reason    string      `json:"reason"`
	Winners   []Player    `json:"winners"`
	TopScore  int         `json:"top_score"`
	Scores    map[int]int `json:"scores"`
	Message   string      `json:"message"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at"`
}

func (that *RoundResult) IsTie() bool {
	return len(that.Winners) > 1
}

func (that *RoundResult) HasWinner() bool {
	return len(that.Winners) > 0
}
