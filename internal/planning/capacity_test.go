/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agileflow/engine/internal/domain"
)

func member(id string, capacity, focus float64) domain.TeamMember {
	return domain.TeamMember{
		User:        domain.User{ID: id, Name: id},
		Capacity:    capacity,
		FocusFactor: focus,
	}
}

func issue(points int, status domain.IssueStatus, assigneeID string) domain.Issue {
	i := domain.Issue{StoryPoints: points, Status: status}
	if assigneeID != "" {
		i.Assignee = &domain.User{ID: assigneeID}
	}
	return i
}

func TestTeamCapacity(t *testing.T) {
	team := domain.Team{Members: []domain.TeamMember{
		member("a", 10, 1.0),
		member("b", 20, 0.75),
	}}
	assert.InDelta(t, 25.0, TeamCapacity(team), 1e-9)
}

func TestTeamCapacityEmptyRoster(t *testing.T) {
	assert.Zero(t, TeamCapacity(domain.Team{}))
	assert.Zero(t, AverageFocusPct(domain.Team{}))
}

func TestAverageFocusPct(t *testing.T) {
	team := domain.Team{Members: []domain.TeamMember{
		member("a", 10, 1.0),
		member("b", 20, 0.5),
	}}
	assert.InDelta(t, 75.0, AverageFocusPct(team), 1e-9)
}

func TestProgressCompletionRounds(t *testing.T) {
	issues := []domain.Issue{
		issue(5, domain.StatusDone, ""),
		issue(3, domain.StatusTodo, ""),
		issue(5, domain.StatusInProgress, ""),
	}
	p := Progress(issues)
	assert.Equal(t, 13, p.TotalPoints)
	assert.Equal(t, 5, p.CompletedPoints)
	assert.Equal(t, 38, p.CompletionPct) // 5/13 = 38.46 rounds down
}

func TestProgressEmptySprint(t *testing.T) {
	p := Progress(nil)
	assert.Zero(t, p.TotalPoints)
	assert.Zero(t, p.CompletionPct)
}

func TestProgressRoundsHalfUp(t *testing.T) {
	issues := []domain.Issue{
		issue(1, domain.StatusDone, ""),
		issue(7, domain.StatusTodo, ""),
	}
	assert.Equal(t, 13, Progress(issues).CompletionPct) // 1/8 = 12.5
}

func TestMemberWorkload(t *testing.T) {
	m := member("a", 10, 1.0)
	issues := []domain.Issue{
		issue(3, domain.StatusTodo, "a"),
		issue(5, domain.StatusDone, "a"),
		issue(8, domain.StatusTodo, "b"),
		issue(2, domain.StatusTodo, ""),
	}
	assert.Equal(t, 8, MemberWorkload(m, issues))
}

func TestWorkloadsZeroCapacityNoDivide(t *testing.T) {
	team := domain.Team{Members: []domain.TeamMember{
		member("a", 0, 1.0),
		member("b", 10, 0),
	}}
	issues := []domain.Issue{issue(5, domain.StatusTodo, "a")}

	loads := Workloads(team, issues)
	assert.Len(t, loads, 2)
	assert.Equal(t, 5, loads[0].AssignedPoints)
	assert.Zero(t, loads[0].UtilizationPct)
	assert.Zero(t, loads[1].UtilizationPct)
}

func TestWorkloadsUtilization(t *testing.T) {
	team := domain.Team{Members: []domain.TeamMember{member("a", 20, 0.5)}}
	issues := []domain.Issue{issue(5, domain.StatusTodo, "a")}

	loads := Workloads(team, issues)
	assert.InDelta(t, 10.0, loads[0].Capacity, 1e-9)
	assert.InDelta(t, 50.0, loads[0].UtilizationPct, 1e-9)
}

func TestOverCapacity(t *testing.T) {
	assert.False(t, OverCapacity(25, 25.0))
	assert.True(t, OverCapacity(26, 25.0))
	assert.True(t, OverCapacity(1, 0))
}

func TestIdealBurndown(t *testing.T) {
	curve := IdealBurndown(10, 5)
	assert.Len(t, curve, 6)
	assert.InDelta(t, 10.0, curve[0], 1e-9)
	assert.InDelta(t, 0.0, curve[5], 1e-9)

	assert.Nil(t, IdealBurndown(10, 0))
}
