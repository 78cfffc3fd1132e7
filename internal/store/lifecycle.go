/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package store

import (
	"fmt"

	"github.com/agileflow/engine/internal/domain"
)

// Sprint lifecycle: FUTURE -> ACTIVE -> CLOSED, strictly forward. All
// operations here run under the store mutex, so the multi-step rollover in
// CompleteSprint can never interleave with a concurrent issue move.

// CloseResult reports the outcome of completing a sprint.
type CloseResult struct {
	Sprint     domain.Sprint `json:"sprint"`
	RolledOver int           `json:"rolledOverCount"`
}

func (s *Store) findSprint(team *domain.Team, sprintID string) *domain.Sprint {
	for i := range team.Sprints {
		if team.Sprints[i].ID == sprintID {
			return &team.Sprints[i]
		}
	}
	return nil
}

func activeSprint(team *domain.Team) *domain.Sprint {
	for i := range team.Sprints {
		if team.Sprints[i].Status == domain.SprintActive {
			return &team.Sprints[i]
		}
	}
	return nil
}

// MoveIssueToSprint assigns the issue to the team's active sprint and resets
// its status to "To Do", whatever status it had before. Fails when the team
// has no active sprint; nothing is mutated in that case.
func (s *Store) MoveIssueToSprint(teamID, issueID string) (domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return domain.Issue{}, fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	active := activeSprint(team)
	if active == nil {
		return domain.Issue{}, fmt.Errorf("team %q: %w", teamID, domain.ErrNoActiveSprint)
	}
	issue := s.findIssue(issueID)
	if issue == nil {
		return domain.Issue{}, fmt.Errorf("issue %q: %w", issueID, domain.ErrIssueNotFound)
	}
	issue.SprintID = active.ID
	issue.Status = domain.StatusTodo
	s.log.Debug().Str("issue", issue.Key).Str("sprint", active.ID).Msg("issue moved to sprint")
	return cloneIssue(*issue), nil
}

// MoveIssueToBacklog clears the sprint reference and resets the status to
// Backlog unconditionally, mirroring the reset-on-entry rule above.
func (s *Store) MoveIssueToBacklog(issueID string) (domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue := s.findIssue(issueID)
	if issue == nil {
		return domain.Issue{}, fmt.Errorf("issue %q: %w", issueID, domain.ErrIssueNotFound)
	}
	issue.SprintID = ""
	issue.Status = domain.StatusBacklog
	s.log.Debug().Str("issue", issue.Key).Msg("issue moved to backlog")
	return cloneIssue(*issue), nil
}

// StartSprint transitions FUTURE -> ACTIVE. At most one sprint per team may
// be active, so activation fails while another sprint holds that slot.
func (s *Store) StartSprint(teamID, sprintID string) (domain.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return domain.Sprint{}, fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	sprint := s.findSprint(team, sprintID)
	if sprint == nil {
		return domain.Sprint{}, fmt.Errorf("sprint %q: %w", sprintID, domain.ErrSprintNotFound)
	}
	if sprint.Status != domain.SprintFuture {
		return domain.Sprint{}, fmt.Errorf("sprint %q is %s: %w", sprintID, sprint.Status, domain.ErrInvalidTransition)
	}
	if cur := activeSprint(team); cur != nil {
		return domain.Sprint{}, fmt.Errorf("sprint %q already active on team %q: %w", cur.ID, teamID, domain.ErrSprintAlreadyActive)
	}
	sprint.Status = domain.SprintActive
	s.log.Info().Str("team", teamID).Str("sprint", sprintID).Msg("sprint started")
	return *sprint, nil
}

// CompleteSprint closes an active sprint: every issue still in the sprint and
// not Done is rolled over to the backlog, then the sprint becomes CLOSED. The
// whole operation is one critical section; callers never see a half-closed
// sprint.
func (s *Store) CompleteSprint(teamID, sprintID string) (CloseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return CloseResult{}, fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	sprint := s.findSprint(team, sprintID)
	if sprint == nil {
		return CloseResult{}, fmt.Errorf("sprint %q: %w", sprintID, domain.ErrSprintNotFound)
	}
	if sprint.Status != domain.SprintActive {
		return CloseResult{}, fmt.Errorf("sprint %q is %s: %w", sprintID, sprint.Status, domain.ErrInvalidTransition)
	}

	rolled := 0
	for i := range s.issues {
		if s.issues[i].SprintID == sprintID && s.issues[i].Status != domain.StatusDone {
			s.issues[i].SprintID = ""
			s.issues[i].Status = domain.StatusBacklog
			rolled++
		}
	}
	sprint.Status = domain.SprintClosed
	s.log.Info().Str("team", teamID).Str("sprint", sprintID).Int("rolled_over", rolled).Msg("sprint completed")
	return CloseResult{Sprint: *sprint, RolledOver: rolled}, nil
}
