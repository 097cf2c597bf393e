package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrTaskNotClaimable is returned when a task is terminal or being processed by a live worker.
	ErrTaskNotClaimable = errors.New("task is not claimable")
	// ErrTaskTerminal is returned when a transition targets a task that already completed or failed.
	ErrTaskTerminal = errors.New("task is already in a terminal state")
	// ErrMissingReport is returned when a task would complete without any report.
	ErrMissingReport = errors.New("a completed task needs at least one report")
)
