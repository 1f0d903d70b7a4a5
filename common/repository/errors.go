package repository

import "errors"

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrClaimLost is returned when a conditional claim matched no row: the
// execution was already claimed, cancelled or finished. Workers treat this
// as routine and move on.
var ErrClaimLost = errors.New("execution claim lost")

// ErrFinaliseLost is returned when a finalising update matched no running
// row: the execution was cancelled out from under the worker. The terminal
// state already on the row stands.
var ErrFinaliseLost = errors.New("execution finalise lost")
