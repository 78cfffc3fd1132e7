package store

import (
	"time"

	"github.com/agileflow/engine/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed loads the demo workspace: a four-person directory, two teams, two
// sprints and a small backlog. Intended for dev mode and tests.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []domain.User{
		{ID: "u-1", Name: "Alex River", Avatar: "https://picsum.photos/seed/alex/100", Role: domain.RoleAdmin, Email: "alex@agileflow.com"},
		{ID: "u-2", Name: "Jordan Smith", Avatar: "https://picsum.photos/seed/jordan/100", Role: domain.RoleScrumMaster, Email: "jordan@agileflow.com"},
		{ID: "u-3", Name: "Casey Chen", Avatar: "https://picsum.photos/seed/casey/100", Role: domain.RoleDeveloper, Email: "casey@agileflow.com"},
		{ID: "u-4", Name: "Sam Taylor", Avatar: "https://picsum.photos/seed/sam/100", Role: domain.RoleDeveloper, Email: "sam@agileflow.com"},
	}

	members := []domain.TeamMember{
		{User: users[0], Capacity: 8, FocusFactor: 0.5},
		{User: users[1], Capacity: 12, FocusFactor: 0.9},
		{User: users[2], Capacity: 20, FocusFactor: 1.0},
		{User: users[3], Capacity: 18, FocusFactor: 1.0},
	}

	casey := users[2]

	sprints := []domain.Sprint{
		{
			ID: "s-1", Name: "Sprint 24 - Checkout Flow",
			StartDate: date(2024, time.May, 1), EndDate: date(2024, time.May, 14),
			Goal:   "Complete payment gateway integration and mobile responsive checkout.",
			Status: domain.SprintActive,
		},
		{
			ID: "s-2", Name: "Sprint 25 - Account Revamp",
			StartDate: date(2024, time.May, 15), EndDate: date(2024, time.May, 28),
			Goal:   "Redesign user profile and security settings dashboard.",
			Status: domain.SprintFuture,
		},
	}

	s.users = users
	s.teams = []domain.Team{
		{
			ID: "t-1", Name: "Product Engineering",
			Description: "Core product development and backend services.",
			Members:     append([]domain.TeamMember(nil), members...),
			Sprints:     append([]domain.Sprint(nil), sprints...),
			Velocity:    24,
		},
		{
			ID: "t-2", Name: "Marketing & Ops",
			Description: "External communications and operational workflows.",
			Members:     []domain.TeamMember{members[0], members[1]},
			Sprints:     []domain.Sprint{},
			Velocity:    15,
		},
	}
	s.issues = []domain.Issue{
		{
			ID: "i-1", Key: "AF-101", Title: "Implement Stripe Elements",
			Description: "Integrate secure payment forms.",
			Type:        domain.TypeStory, Status: domain.StatusTodo, Priority: domain.PriorityHigh,
			StoryPoints: 5, Reporter: users[1], SprintID: "s-1", CreatedAt: date(2024, time.April, 20),
		},
		{
			ID: "i-2", Key: "AF-102", Title: "Bug: Payment failure on iOS",
			Description: "Users reporting crashes when using Apple Pay.",
			Type:        domain.TypeBug, Status: domain.StatusInProgress, Priority: domain.PriorityCritical,
			StoryPoints: 3, Reporter: users[2], Assignee: &casey, SprintID: "s-1", CreatedAt: date(2024, time.April, 22),
		},
		{
			ID: "i-3", Key: "AF-103", Title: "Design new profile page",
			Description: "Create Figma mocks for the profile update.",
			Type:        domain.TypeStory, Status: domain.StatusBacklog, Priority: domain.PriorityMedium,
			StoryPoints: 2, Reporter: users[0], CreatedAt: date(2024, time.April, 25),
		},
		{
			ID: "i-4", Key: "AF-104", Title: "API Documentation Update",
			Description: "Document new endpoints for v2.0.",
			Type:        domain.TypeTask, Status: domain.StatusBacklog, Priority: domain.PriorityLow,
			StoryPoints: 1, Reporter: users[3], CreatedAt: date(2024, time.April, 28),
		},
	}
	s.activeTeamID = "t-1"
	s.seq = 100
	s.log.Info().Msg("demo workspace seeded")
}
