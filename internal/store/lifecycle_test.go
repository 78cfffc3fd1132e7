/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agileflow/engine/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2025, 6, n, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store    *Store
	reporter domain.User
	team     domain.Team
	sprint   domain.Sprint
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := newTestStore(t)
	reporter := addUser(t, s, "Alex")
	team, err := s.AddTeam("Platform")
	require.NoError(t, err)
	sprint, err := s.AddSprint(team.ID, "Sprint 1", "ship it", day(1), day(14))
	require.NoError(t, err)
	return fixture{store: s, reporter: reporter, team: team, sprint: sprint}
}

func TestSprintStartsFuture(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, domain.SprintFuture, f.sprint.Status)
}

func TestStartSprint(t *testing.T) {
	f := newFixture(t)

	started, err := f.store.StartSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintActive, started.Status)

	// FUTURE is the only valid source state
	_, err = f.store.StartSprint(f.team.ID, f.sprint.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestStartSprintWithAnotherActive(t *testing.T) {
	f := newFixture(t)
	second, err := f.store.AddSprint(f.team.ID, "Sprint 2", "", day(15), day(28))
	require.NoError(t, err)

	_, err = f.store.StartSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)

	_, err = f.store.StartSprint(f.team.ID, second.ID)
	assert.ErrorIs(t, err, domain.ErrSprintAlreadyActive)
	assert.Equal(t, "SprintAlreadyActive", domain.ErrorKind(err))

	// the rejected sprint is untouched
	team, err := f.store.TeamByID(f.team.ID)
	require.NoError(t, err)
	for _, sp := range team.Sprints {
		if sp.ID == second.ID {
			assert.Equal(t, domain.SprintFuture, sp.Status)
		}
	}
}

func TestStartSprintUnknownIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.StartSprint("ghost", f.sprint.ID)
	assert.ErrorIs(t, err, domain.ErrTeamNotFound)
	_, err = f.store.StartSprint(f.team.ID, "ghost")
	assert.ErrorIs(t, err, domain.ErrSprintNotFound)
}

func TestMoveIssueRequiresActiveSprint(t *testing.T) {
	f := newFixture(t)
	issue, err := f.store.CreateIssue(f.reporter.ID, domain.IssueDraft{Title: "t"})
	require.NoError(t, err)

	_, err = f.store.MoveIssueToSprint(f.team.ID, issue.ID)
	assert.ErrorIs(t, err, domain.ErrNoActiveSprint)

	got, err := f.store.IssueByID(issue.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SprintID, "failed move mutates nothing")
}

func TestMoveIssueRoundTrip(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.StartSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)

	issue, err := f.store.CreateIssue(f.reporter.ID, domain.IssueDraft{Title: "t", Status: domain.StatusInProgress})
	require.NoError(t, err)

	moved, err := f.store.MoveIssueToSprint(f.team.ID, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, f.sprint.ID, moved.SprintID)
	assert.Equal(t, domain.StatusTodo, moved.Status, "status resets on sprint entry")

	back, err := f.store.MoveIssueToBacklog(issue.ID)
	require.NoError(t, err)
	assert.Empty(t, back.SprintID)
	assert.Equal(t, domain.StatusBacklog, back.Status)
}

func TestCompleteSprintRollsOverUnfinished(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.StartSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)

	mk := func(status domain.IssueStatus) domain.Issue {
		i, err := f.store.CreateIssue(f.reporter.ID, domain.IssueDraft{Title: "t", SprintID: f.sprint.ID, Status: status})
		require.NoError(t, err)
		return i
	}
	todo := mk(domain.StatusTodo)
	inProgress := mk(domain.StatusInProgress)
	done := mk(domain.StatusDone)

	res, err := f.store.CompleteSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RolledOver)
	assert.Equal(t, domain.SprintClosed, res.Sprint.Status)

	for _, id := range []string{todo.ID, inProgress.ID} {
		got, err := f.store.IssueByID(id)
		require.NoError(t, err)
		assert.Empty(t, got.SprintID)
		assert.Equal(t, domain.StatusBacklog, got.Status)
	}
	// finished work stays attributed to the closed sprint
	kept, err := f.store.IssueByID(done.ID)
	require.NoError(t, err)
	assert.Equal(t, f.sprint.ID, kept.SprintID)
	assert.Equal(t, domain.StatusDone, kept.Status)

	_, err = f.store.CompleteSprint(f.team.ID, f.sprint.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCompleteSprintNotActive(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.CompleteSprint(f.team.ID, f.sprint.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestNextSprintCanStartAfterClose(t *testing.T) {
	f := newFixture(t)
	second, err := f.store.AddSprint(f.team.ID, "Sprint 2", "", day(15), day(28))
	require.NoError(t, err)

	_, err = f.store.StartSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)
	_, err = f.store.CompleteSprint(f.team.ID, f.sprint.ID)
	require.NoError(t, err)

	started, err := f.store.StartSprint(f.team.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SprintActive, started.Status)
}
