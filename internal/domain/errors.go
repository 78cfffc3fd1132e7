/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrIssueNotFound  = errors.New("issue not found")
	ErrSprintNotFound = errors.New("sprint not found")

	ErrInvalidTransition   = errors.New("invalid sprint transition")
	ErrNoActiveSprint      = errors.New("no active sprint")
	ErrSprintAlreadyActive = errors.New("another sprint is already active")

	ErrValidation = errors.New("validation failed")
)

// ErrorKind maps a store or lifecycle error to the wire-level kind reported in
// operation results.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrTeamNotFound),
		errors.Is(err, ErrIssueNotFound),
		errors.Is(err, ErrSprintNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidTransition):
		return "InvalidTransition"
	case errors.Is(err, ErrNoActiveSprint):
		return "NoActiveSprint"
	case errors.Is(err, ErrSprintAlreadyActive):
		return "SprintAlreadyActive"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	default:
		return "Internal"
	}
}
