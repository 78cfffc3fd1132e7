/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */

// Package planning derives capacity, workload and progress figures from teams
// and issues. Everything here is pure: callers recompute on demand and nothing
// is cached against the store.
package planning

import (
	"math"

	"github.com/agileflow/engine/internal/domain"
)

// EffectiveCapacity discounts a member's raw capacity by their focus factor.
func EffectiveCapacity(m domain.TeamMember) float64 {
	return m.Capacity * m.FocusFactor
}

// TeamCapacity sums effective capacity over the roster. Zero members means
// zero capacity.
func TeamCapacity(t domain.Team) float64 {
	total := 0.0
	for _, m := range t.Members {
		total += EffectiveCapacity(m)
	}
	return total
}

// AverageFocusPct is the roster's mean focus factor as a percentage.
func AverageFocusPct(t domain.Team) float64 {
	if len(t.Members) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range t.Members {
		sum += m.FocusFactor
	}
	return sum / float64(len(t.Members)) * 100
}

// MemberWorkload sums the story points of sprint issues assigned to the member.
func MemberWorkload(m domain.TeamMember, sprintIssues []domain.Issue) int {
	points := 0
	for _, i := range sprintIssues {
		if i.Assignee != nil && i.Assignee.ID == m.ID {
			points += i.StoryPoints
		}
	}
	return points
}

// MemberLoad is one roster row of the sprint workload view.
type MemberLoad struct {
	Member         domain.TeamMember `json:"member"`
	AssignedPoints int               `json:"assignedPoints"`
	Capacity       float64           `json:"capacity"`
	UtilizationPct float64           `json:"utilizationPct"`
}

// Workloads computes per-member load for the given sprint issues. Utilization
// is 0 when the member's effective capacity is 0; never a division by zero.
func Workloads(t domain.Team, sprintIssues []domain.Issue) []MemberLoad {
	out := make([]MemberLoad, 0, len(t.Members))
	for _, m := range t.Members {
		capacity := EffectiveCapacity(m)
		assigned := MemberWorkload(m, sprintIssues)
		pct := 0.0
		if capacity > 0 {
			pct = float64(assigned) / capacity * 100
		}
		out = append(out, MemberLoad{
			Member:         m,
			AssignedPoints: assigned,
			Capacity:       capacity,
			UtilizationPct: pct,
		})
	}
	return out
}

// SprintProgress summarizes commitment and completion for a sprint's issues.
type SprintProgress struct {
	TotalPoints     int `json:"totalPoints"`
	CompletedPoints int `json:"completedPoints"`
	CompletionPct   int `json:"completionPct"`
}

func Progress(sprintIssues []domain.Issue) SprintProgress {
	p := SprintProgress{}
	for _, i := range sprintIssues {
		p.TotalPoints += i.StoryPoints
		if i.Status == domain.StatusDone {
			p.CompletedPoints += i.StoryPoints
		}
	}
	if p.TotalPoints > 0 {
		p.CompletionPct = int(math.Round(float64(p.CompletedPoints) / float64(p.TotalPoints) * 100))
	}
	return p
}

// OverCapacity flags a commitment above team capacity. Advisory only: the
// store never rejects over-commitment, callers just surface the flag.
func OverCapacity(totalPoints int, teamCapacity float64) bool {
	return float64(totalPoints) > teamCapacity
}

// IdealBurndown is the straight-line remaining-points curve over the sprint,
// one entry per day boundary including both endpoints.
func IdealBurndown(totalPoints, days int) []float64 {
	if days <= 0 {
		return nil
	}
	step := float64(totalPoints) / float64(days)
	out := make([]float64, days+1)
	for i := 0; i <= days; i++ {
		out[i] = float64(totalPoints) - float64(i)*step
	}
	return out
}
