// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request failed validation.
var ErrValidation = errors.New("validation failed")

// ErrNoAgentAvailable indicates no agent could be matched to an instruction.
// This is a normal outcome, not a fault; callers surface it as an
// unsuccessful dispatch result rather than an error response.
var ErrNoAgentAvailable = errors.New("no suitable agent available")

// ErrQueueFull indicates the task queue rejected a dispatch at capacity.
var ErrQueueFull = errors.New("task queue full")
