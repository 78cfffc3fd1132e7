/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import "time"

type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleScrumMaster Role = "Scrum Master"
	RoleDeveloper   Role = "Developer"
)

type IssueType string

const (
	TypeStory IssueType = "Story"
	TypeBug   IssueType = "Bug"
	TypeTask  IssueType = "Task"
	TypeEpic  IssueType = "Epic"
)

type IssueStatus string

const (
	StatusBacklog    IssueStatus = "Backlog"
	StatusTodo       IssueStatus = "To Do"
	StatusInProgress IssueStatus = "In Progress"
	StatusDone       IssueStatus = "Done"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

type SprintStatus string

const (
	SprintFuture SprintStatus = "FUTURE"
	SprintActive SprintStatus = "ACTIVE"
	SprintClosed SprintStatus = "CLOSED"
)

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Role   Role   `json:"role"`
}

// TeamMember is a team-scoped copy of a User plus sprint-planning attributes.
// The store keeps the User fields in sync on global user edits.
type TeamMember struct {
	User
	Capacity    float64 `json:"capacity"`
	FocusFactor float64 `json:"focusFactor"`
}

type Issue struct {
	ID          string      `json:"id"`
	Key         string      `json:"key"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        IssueType   `json:"type"`
	Status      IssueStatus `json:"status"`
	Priority    Priority    `json:"priority"`
	StoryPoints int         `json:"storyPoints"`
	Reporter    User        `json:"reporter"`
	Assignee    *User       `json:"assignee,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	// SprintID is a weak reference; empty means the issue sits in the backlog.
	SprintID string `json:"sprintId,omitempty"`
}

type Sprint struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Goal      string       `json:"goal"`
	Status    SprintStatus `json:"status"`
}

type Team struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Members     []TeamMember `json:"members"`
	Sprints     []Sprint     `json:"sprints"`
	Velocity    float64      `json:"velocity"`
}

// IssueDraft carries caller-provided fields for issue creation; anything left
// zero is defaulted by the store.
type IssueDraft struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        IssueType   `json:"type"`
	Status      IssueStatus `json:"status"`
	Priority    Priority    `json:"priority"`
	StoryPoints int         `json:"storyPoints"`
	AssigneeID  string      `json:"assigneeId"`
	SprintID    string      `json:"sprintId"`
}

// Patch types use pointer fields: nil means "leave unchanged".

type IssuePatch struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Type        *IssueType   `json:"type"`
	Status      *IssueStatus `json:"status"`
	Priority    *Priority    `json:"priority"`
	StoryPoints *int         `json:"storyPoints"`
	AssigneeID  *string      `json:"assigneeId"`
}

type TeamPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Velocity    *float64 `json:"velocity"`
}

type MemberPatch struct {
	Role        *Role    `json:"role"`
	Capacity    *float64 `json:"capacity"`
	FocusFactor *float64 `json:"focusFactor"`
}

type UserDraft struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Role   Role   `json:"role"`
}

type UserPatch struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
	Role   *Role   `json:"role"`
}

// Estimate is the AI complexity contract: points are always one of the
// Fibonacci values 1, 2, 3, 5, 8, 13.
type Estimate struct {
	Points    int    `json:"points"`
	Reasoning string `json:"reasoning"`
}

// Snapshot is a full copy of the store state, used by the optional
// persistence adapter.
type Snapshot struct {
	Users        []User    `json:"users"`
	Teams        []Team    `json:"teams"`
	Issues       []Issue   `json:"issues"`
	ActiveTeamID string    `json:"activeTeamId"`
	Seq          int64     `json:"seq"`
	TakenAt      time.Time `json:"takenAt"`
}
