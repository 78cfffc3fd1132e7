/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */

// Package store holds the canonical in-memory collections of users, teams and
// issues. Every mutation runs under a single mutex, so no caller can observe a
// partially applied operation.
package store

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/domain"
	"github.com/rs/zerolog"
)

type Store struct {
	mu  sync.RWMutex
	log zerolog.Logger

	keyPrefix string

	users  []domain.User
	teams  []domain.Team
	issues []domain.Issue

	activeTeamID string
	seq          int64
}

func New(cfg config.Config, log zerolog.Logger) *Store {
	prefix := strings.TrimSpace(cfg.IssueKeyPrefix)
	if prefix == "" {
		prefix = "AF"
	}
	return &Store{log: log, keyPrefix: prefix}
}

func (s *Store) nextID(kind string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", kind, s.seq)
}

// nextIssueKey numbers keys from the current issue count, the scheme the
// display keys always used. Count-based numbering alone can collide after a
// delete+create cycle, so the candidate is advanced past any key still held.
func (s *Store) nextIssueKey() string {
	num := 100 + len(s.issues) + 1
	for s.keyExists(fmt.Sprintf("%s-%d", s.keyPrefix, num)) {
		num++
	}
	return fmt.Sprintf("%s-%d", s.keyPrefix, num)
}

func (s *Store) keyExists(key string) bool {
	for i := range s.issues {
		if s.issues[i].Key == key {
			return true
		}
	}
	return false
}

func (s *Store) findUser(id string) *domain.User {
	for i := range s.users {
		if s.users[i].ID == id {
			return &s.users[i]
		}
	}
	return nil
}

func (s *Store) findTeam(id string) *domain.Team {
	for i := range s.teams {
		if s.teams[i].ID == id {
			return &s.teams[i]
		}
	}
	return nil
}

func (s *Store) findIssue(id string) *domain.Issue {
	for i := range s.issues {
		if s.issues[i].ID == id {
			return &s.issues[i]
		}
	}
	return nil
}

func (s *Store) sprintExists(id string) bool {
	for ti := range s.teams {
		for si := range s.teams[ti].Sprints {
			if s.teams[ti].Sprints[si].ID == id {
				return true
			}
		}
	}
	return false
}

func cloneIssue(i domain.Issue) domain.Issue {
	out := i
	if i.Assignee != nil {
		a := *i.Assignee
		out.Assignee = &a
	}
	return out
}

func cloneTeam(t domain.Team) domain.Team {
	out := t
	out.Members = append([]domain.TeamMember(nil), t.Members...)
	out.Sprints = append([]domain.Sprint(nil), t.Sprints...)
	return out
}

// ---- Issues ----

// CreateIssue fills defaults for any field the draft leaves empty, assigns a
// fresh id and the next display key, and prepends the issue (most-recent-first
// ordering is a presentation convention the store preserves).
func (s *Store) CreateIssue(actorID string, d domain.IssueDraft) (domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor := s.findUser(actorID)
	if actor == nil {
		return domain.Issue{}, fmt.Errorf("reporter %q: %w", actorID, domain.ErrUserNotFound)
	}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Untitled Issue"
	}
	typ := d.Type
	if typ == "" {
		typ = domain.TypeStory
	}
	status := d.Status
	if status == "" {
		status = domain.StatusBacklog
	}
	priority := d.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	points := d.StoryPoints
	if points <= 0 {
		points = 1
	}

	var assignee *domain.User
	if d.AssigneeID != "" {
		u := s.findUser(d.AssigneeID)
		if u == nil {
			return domain.Issue{}, fmt.Errorf("assignee %q: %w", d.AssigneeID, domain.ErrUserNotFound)
		}
		cp := *u
		assignee = &cp
	}
	if d.SprintID != "" && !s.sprintExists(d.SprintID) {
		return domain.Issue{}, fmt.Errorf("sprint %q: %w", d.SprintID, domain.ErrSprintNotFound)
	}

	issue := domain.Issue{
		ID:          s.nextID("i"),
		Key:         s.nextIssueKey(),
		Title:       title,
		Description: d.Description,
		Type:        typ,
		Status:      status,
		Priority:    priority,
		StoryPoints: points,
		Reporter:    *actor,
		Assignee:    assignee,
		CreatedAt:   time.Now(),
		SprintID:    d.SprintID,
	}
	s.issues = append([]domain.Issue{issue}, s.issues...)
	s.log.Debug().Str("key", issue.Key).Str("title", issue.Title).Msg("issue created")
	return cloneIssue(issue), nil
}

func (s *Store) UpdateIssue(id string, p domain.IssuePatch) (domain.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issue := s.findIssue(id)
	if issue == nil {
		return domain.Issue{}, fmt.Errorf("issue %q: %w", id, domain.ErrIssueNotFound)
	}
	if p.Title != nil {
		issue.Title = *p.Title
	}
	if p.Description != nil {
		issue.Description = *p.Description
	}
	if p.Type != nil {
		issue.Type = *p.Type
	}
	if p.Status != nil {
		issue.Status = *p.Status
	}
	if p.Priority != nil {
		issue.Priority = *p.Priority
	}
	if p.StoryPoints != nil {
		issue.StoryPoints = *p.StoryPoints
	}
	if p.AssigneeID != nil {
		if *p.AssigneeID == "" {
			issue.Assignee = nil
		} else {
			u := s.findUser(*p.AssigneeID)
			if u == nil {
				return domain.Issue{}, fmt.Errorf("assignee %q: %w", *p.AssigneeID, domain.ErrUserNotFound)
			}
			cp := *u
			issue.Assignee = &cp
		}
	}
	return cloneIssue(*issue), nil
}

// DeleteIssues removes every issue whose id matches; unknown ids are skipped.
func (s *Store) DeleteIssues(ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.issues[:0]
	removed := 0
	for _, i := range s.issues {
		if _, ok := drop[i.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, i)
	}
	s.issues = kept
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("issues deleted")
	}
	return removed
}

func (s *Store) Issues() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Issue, 0, len(s.issues))
	for _, i := range s.issues {
		out = append(out, cloneIssue(i))
	}
	return out
}

func (s *Store) IssueByID(id string) (domain.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.findIssue(id); i != nil {
		return cloneIssue(*i), nil
	}
	return domain.Issue{}, fmt.Errorf("issue %q: %w", id, domain.ErrIssueNotFound)
}

// BacklogIssues returns every issue not assigned to a sprint.
func (s *Store) BacklogIssues() []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Issue
	for _, i := range s.issues {
		if i.SprintID == "" {
			out = append(out, cloneIssue(i))
		}
	}
	return out
}

func (s *Store) SprintIssues(sprintID string) []domain.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Issue
	for _, i := range s.issues {
		if i.SprintID == sprintID {
			out = append(out, cloneIssue(i))
		}
	}
	return out
}

// ---- Teams ----

// AddTeam creates an empty team and makes it the caller's active selection.
func (s *Store) AddTeam(name string) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Team{}, fmt.Errorf("team name: %w", domain.ErrValidation)
	}
	team := domain.Team{
		ID:          s.nextID("t"),
		Name:        name,
		Description: "New agile team created in workspace.",
		Members:     []domain.TeamMember{},
		Sprints:     []domain.Sprint{},
		Velocity:    0,
	}
	s.teams = append(s.teams, team)
	s.activeTeamID = team.ID
	s.log.Info().Str("team", team.ID).Str("name", name).Msg("team added")
	return cloneTeam(team), nil
}

func (s *Store) UpdateTeam(id string, p domain.TeamPatch) (domain.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(id)
	if team == nil {
		return domain.Team{}, fmt.Errorf("team %q: %w", id, domain.ErrTeamNotFound)
	}
	if p.Name != nil {
		team.Name = *p.Name
	}
	if p.Description != nil {
		team.Description = *p.Description
	}
	if p.Velocity != nil {
		team.Velocity = *p.Velocity
	}
	return cloneTeam(*team), nil
}

// DeleteTeam removes the team together with its members and sprints. Issues
// only reference sprints weakly, so any issue left pointing at a cascaded
// sprint is reset to the backlog to keep the reference invariant intact.
func (s *Store) DeleteTeam(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(id)
	if team == nil {
		return fmt.Errorf("team %q: %w", id, domain.ErrTeamNotFound)
	}
	gone := make(map[string]struct{}, len(team.Sprints))
	for _, sp := range team.Sprints {
		gone[sp.ID] = struct{}{}
	}
	for i := range s.issues {
		if _, ok := gone[s.issues[i].SprintID]; ok {
			s.issues[i].SprintID = ""
			s.issues[i].Status = domain.StatusBacklog
		}
	}

	kept := s.teams[:0]
	for _, t := range s.teams {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.teams = kept
	if s.activeTeamID == id {
		s.activeTeamID = ""
		if len(s.teams) > 0 {
			s.activeTeamID = s.teams[0].ID
		}
	}
	s.log.Info().Str("team", id).Msg("team deleted")
	return nil
}

func (s *Store) Teams() []domain.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, cloneTeam(t))
	}
	return out
}

func (s *Store) TeamByID(id string) (domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := s.findTeam(id); t != nil {
		return cloneTeam(*t), nil
	}
	return domain.Team{}, fmt.Errorf("team %q: %w", id, domain.ErrTeamNotFound)
}

func (s *Store) SelectTeam(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findTeam(id) == nil {
		return fmt.Errorf("team %q: %w", id, domain.ErrTeamNotFound)
	}
	s.activeTeamID = id
	return nil
}

func (s *Store) ActiveTeam() (domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := s.findTeam(s.activeTeamID); t != nil {
		return cloneTeam(*t), nil
	}
	return domain.Team{}, fmt.Errorf("active team: %w", domain.ErrTeamNotFound)
}

// ---- Members ----

// AddMember puts an existing user on the team roster with the default
// planning attributes (capacity 20, focus factor 1.0).
func (s *Store) AddMember(teamID, userID string) (domain.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return domain.TeamMember{}, fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	user := s.findUser(userID)
	if user == nil {
		return domain.TeamMember{}, fmt.Errorf("user %q: %w", userID, domain.ErrUserNotFound)
	}
	for _, m := range team.Members {
		if m.ID == userID {
			return domain.TeamMember{}, fmt.Errorf("user %q already on team %q: %w", userID, teamID, domain.ErrValidation)
		}
	}
	member := domain.TeamMember{User: *user, Capacity: 20, FocusFactor: 1.0}
	team.Members = append(team.Members, member)
	return member, nil
}

func (s *Store) UpdateMember(teamID, userID string, p domain.MemberPatch) (domain.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return domain.TeamMember{}, fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	for i := range team.Members {
		if team.Members[i].ID != userID {
			continue
		}
		if p.Role != nil {
			team.Members[i].Role = *p.Role
		}
		if p.Capacity != nil {
			team.Members[i].Capacity = *p.Capacity
		}
		if p.FocusFactor != nil {
			team.Members[i].FocusFactor = *p.FocusFactor
		}
		return team.Members[i], nil
	}
	return domain.TeamMember{}, fmt.Errorf("member %q: %w", userID, domain.ErrUserNotFound)
}

// RemoveMember drops the user from the roster; the global User record stays.
func (s *Store) RemoveMember(teamID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	for i := range team.Members {
		if team.Members[i].ID == userID {
			team.Members = append(team.Members[:i], team.Members[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("member %q: %w", userID, domain.ErrUserNotFound)
}

// ---- Sprints ----

func (s *Store) AddSprint(teamID, name, goal string, start, end time.Time) (domain.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team := s.findTeam(teamID)
	if team == nil {
		return domain.Sprint{}, fmt.Errorf("team %q: %w", teamID, domain.ErrTeamNotFound)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Sprint{}, fmt.Errorf("sprint name: %w", domain.ErrValidation)
	}
	sprint := domain.Sprint{
		ID:        s.nextID("s"),
		Name:      name,
		Goal:      goal,
		StartDate: start,
		EndDate:   end,
		Status:    domain.SprintFuture,
	}
	team.Sprints = append(team.Sprints, sprint)
	s.log.Info().Str("team", teamID).Str("sprint", sprint.ID).Str("name", name).Msg("sprint added")
	return sprint, nil
}

// ---- Users ----

func placeholderAvatar(name string) string {
	if name == "" {
		name = "User"
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=6366f1&color=fff&bold=true&size=128"
}

func (s *Store) AddUser(d domain.UserDraft) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSpace(d.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf("user name: %w", domain.ErrValidation)
	}
	role := d.Role
	if role == "" {
		role = domain.RoleDeveloper
	}
	avatar := d.Avatar
	if avatar == "" {
		avatar = placeholderAvatar(name)
	}
	user := domain.User{
		ID:     s.nextID("u"),
		Name:   name,
		Email:  d.Email,
		Avatar: avatar,
		Role:   role,
	}
	s.users = append(s.users, user)
	s.log.Info().Str("user", user.ID).Str("name", name).Msg("user added")
	return user, nil
}

// UpdateUser edits the directory record and pushes the changed identity
// fields into every team roster where the user appears. The team-scoped
// capacity and focus factor are left alone.
func (s *Store) UpdateUser(id string, p domain.UserPatch) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.findUser(id)
	if user == nil {
		return domain.User{}, fmt.Errorf("user %q: %w", id, domain.ErrUserNotFound)
	}
	if p.Name != nil {
		user.Name = *p.Name
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.Avatar != nil {
		user.Avatar = *p.Avatar
	}
	if p.Role != nil {
		user.Role = *p.Role
	}

	for ti := range s.teams {
		for mi := range s.teams[ti].Members {
			if s.teams[ti].Members[mi].ID == id {
				s.teams[ti].Members[mi].User = *user
			}
		}
	}
	return *user, nil
}

func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.User(nil), s.users...)
}

func (s *Store) UserByID(id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u := s.findUser(id); u != nil {
		return *u, nil
	}
	return domain.User{}, fmt.Errorf("user %q: %w", id, domain.ErrUserNotFound)
}

// ---- Snapshot ----

func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.Snapshot{
		Users:        append([]domain.User(nil), s.users...),
		Teams:        make([]domain.Team, 0, len(s.teams)),
		Issues:       make([]domain.Issue, 0, len(s.issues)),
		ActiveTeamID: s.activeTeamID,
		Seq:          s.seq,
		TakenAt:      time.Now(),
	}
	for _, t := range s.teams {
		snap.Teams = append(snap.Teams, cloneTeam(t))
	}
	for _, i := range s.issues {
		snap.Issues = append(snap.Issues, cloneIssue(i))
	}
	return snap
}

func (s *Store) Restore(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]domain.User(nil), snap.Users...)
	s.teams = make([]domain.Team, 0, len(snap.Teams))
	for _, t := range snap.Teams {
		s.teams = append(s.teams, cloneTeam(t))
	}
	s.issues = make([]domain.Issue, 0, len(snap.Issues))
	for _, i := range snap.Issues {
		s.issues = append(s.issues, cloneIssue(i))
	}
	s.activeTeamID = snap.ActiveTeamID
	s.seq = snap.Seq
	s.log.Info().Int("users", len(s.users)).Int("teams", len(s.teams)).Int("issues", len(s.issues)).Msg("store restored from snapshot")
}
