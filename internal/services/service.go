/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/domain"
	"github.com/agileflow/engine/internal/planning"
	"github.com/agileflow/engine/internal/store"
)

// LLM is the AI collaborator contract. Failures never escape the service:
// estimation falls back to a one-point default and analysis to a fixed string.
type LLM interface {
	EstimateComplexity(ctx context.Context, title, description, extra string) (domain.Estimate, error)
	AnalyzeSprint(ctx context.Context, sprint domain.Sprint, issues []domain.Issue) (string, error)
}

const analysisFallback = "Could not generate AI analysis at this time."

var estimateFallback = domain.Estimate{Points: 1, Reasoning: "Defaulted due to error."}

var fibonacciPoints = []int{1, 2, 3, 5, 8, 13}

// snapToFibonacci clamps a model-provided value to the nearest allowed point
// value; the external contract only admits 1, 2, 3, 5, 8, 13.
func snapToFibonacci(n int) int {
	best := fibonacciPoints[0]
	for _, f := range fibonacciPoints {
		if abs(n-f) < abs(n-best) {
			best = f
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type Service struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Store
	llm   LLM

	// Async estimation jobs. Tracked outside the store so slow AI calls never
	// hold the entity lock.
	estMu     sync.Mutex
	estimates map[string]*EstimateJob
	estSeq    int64
}

func New(cfg config.Config, log zerolog.Logger, st *store.Store, llm LLM) *Service {
	return &Service{cfg: cfg, log: log, store: st, llm: llm, estimates: map[string]*EstimateJob{}}
}

func (s *Service) Store() *store.Store { return s.store }

// ---- Complexity estimation ----

// EstimateComplexity runs a bounded AI call and absorbs any failure into the
// defined fallback. The result's points are always in the Fibonacci set.
func (s *Service) EstimateComplexity(ctx context.Context, title, description, extra string) domain.Estimate {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpenAITimeout)
	defer cancel()
	est, err := s.llm.EstimateComplexity(ctx, title, description, extra)
	if err != nil {
		s.log.Warn().Err(err).Str("title", title).Msg("complexity estimate failed; using fallback")
		return estimateFallback
	}
	est.Points = snapToFibonacci(est.Points)
	if strings.TrimSpace(est.Reasoning) == "" {
		est.Reasoning = "No reasoning provided."
	}
	return est
}

// EstimateJob is the caller-visible state of an asynchronous estimate.
type EstimateJob struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"` // pending | done
	Result     domain.Estimate `json:"result"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

// StartEstimate queues an estimation call and returns immediately with a
// pending job; poll EstimateStatus for the outcome.
func (s *Service) StartEstimate(title, description, extra string) EstimateJob {
	s.estMu.Lock()
	s.estSeq++
	job := &EstimateJob{
		ID:        fmt.Sprintf("est-%d", s.estSeq),
		Status:    "pending",
		StartedAt: time.Now(),
	}
	s.estimates[job.ID] = job
	s.estMu.Unlock()

	go func() {
		est := s.EstimateComplexity(context.Background(), title, description, extra)
		now := time.Now()
		s.estMu.Lock()
		job.Result = est
		job.Status = "done"
		job.FinishedAt = &now
		s.estMu.Unlock()
	}()
	return *job
}

func (s *Service) EstimateStatus(id string) (EstimateJob, bool) {
	s.estMu.Lock()
	defer s.estMu.Unlock()
	job, ok := s.estimates[id]
	if !ok {
		return EstimateJob{}, false
	}
	return *job, true
}

// ---- Sprint analysis ----

func (s *Service) teamSprint(teamID, sprintID string) (domain.Team, domain.Sprint, error) {
	team, err := s.store.TeamByID(teamID)
	if err != nil {
		return domain.Team{}, domain.Sprint{}, err
	}
	for _, sp := range team.Sprints {
		if sp.ID == sprintID {
			return team, sp, nil
		}
	}
	return domain.Team{}, domain.Sprint{}, fmt.Errorf("sprint %q: %w", sprintID, domain.ErrSprintNotFound)
}

// AnalyzeSprint returns a free-text AI review of the sprint plan. Unknown
// team or sprint is an error; an AI failure is not, it yields the fallback
// text.
func (s *Service) AnalyzeSprint(ctx context.Context, teamID, sprintID string) (string, error) {
	_, sprint, err := s.teamSprint(teamID, sprintID)
	if err != nil {
		return "", err
	}
	issues := s.store.SprintIssues(sprintID)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpenAITimeout)
	defer cancel()
	text, aiErr := s.llm.AnalyzeSprint(ctx, sprint, issues)
	if aiErr != nil || strings.TrimSpace(text) == "" {
		s.log.Warn().Err(aiErr).Str("sprint", sprintID).Msg("sprint analysis failed; using fallback")
		return analysisFallback, nil
	}
	return text, nil
}

// ---- Refinement desk ----

// complexityWeight maps the refinement desk's Low/Medium/High picks onto
// point weights.
func complexityWeight(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "low":
		return 1
	case "high":
		return 8
	default:
		return 3
	}
}

type RefineResult struct {
	Points      int    `json:"points"`
	EffortHours int    `json:"effortHours"`
	Reasoning   string `json:"reasoning"`
}

// RefineEstimate combines the dev/test complexity heuristic with an AI
// prediction. Effort uses the flat four-hours-per-point rule; points prefer
// the AI estimate and fall back to the raw heuristic sum.
func (s *Service) RefineEstimate(ctx context.Context, story, tech, devComplexity, testComplexity string) RefineResult {
	dev := complexityWeight(devComplexity)
	test := complexityWeight(testComplexity)
	heuristic := dev + test

	extra := fmt.Sprintf("Tech: %s. Dev Complexity: %s, Test Complexity: %s", tech, devComplexity, testComplexity)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OpenAITimeout)
	defer cancel()
	est, err := s.llm.EstimateComplexity(ctx, story, extra, "")
	res := RefineResult{EffortHours: heuristic * 4}
	if err != nil || est.Points <= 0 {
		res.Points = heuristic
		res.Reasoning = "Heuristic estimate from dev/test complexity."
		return res
	}
	res.Points = snapToFibonacci(est.Points)
	res.Reasoning = est.Reasoning
	return res
}

// ---- Reports ----

// SprintReportCSV renders a sprint's issues and progress summary as CSV.
func (s *Service) SprintReportCSV(teamID, sprintID string) ([]byte, error) {
	_, sprint, err := s.teamSprint(teamID, sprintID)
	if err != nil {
		return nil, err
	}
	issues := s.store.SprintIssues(sprintID)
	progress := planning.Progress(issues)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"key", "title", "type", "status", "priority", "points", "assignee"})
	for _, i := range issues {
		assignee := ""
		if i.Assignee != nil {
			assignee = i.Assignee.Name
		}
		_ = w.Write([]string{i.Key, i.Title, string(i.Type), string(i.Status), string(i.Priority), strconv.Itoa(i.StoryPoints), assignee})
	}
	_ = w.Write([]string{})
	_ = w.Write([]string{"sprint", sprint.Name, "total", strconv.Itoa(progress.TotalPoints), "completed", strconv.Itoa(progress.CompletedPoints), fmt.Sprintf("%d%%", progress.CompletionPct)})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ---- Digest ----

// RunDigest logs a health line per team with an active sprint: progress,
// committed points against capacity, and the over-capacity flag.
func (s *Service) RunDigest(ctx context.Context) error {
	for _, team := range s.store.Teams() {
		var active *domain.Sprint
		for i := range team.Sprints {
			if team.Sprints[i].Status == domain.SprintActive {
				active = &team.Sprints[i]
				break
			}
		}
		if active == nil {
			continue
		}
		issues := s.store.SprintIssues(active.ID)
		progress := planning.Progress(issues)
		capacity := planning.TeamCapacity(team)
		s.log.Info().
			Str("team", team.Name).
			Str("sprint", active.Name).
			Int("total_points", progress.TotalPoints).
			Int("completed_points", progress.CompletedPoints).
			Int("completion_pct", progress.CompletionPct).
			Float64("team_capacity", capacity).
			Bool("over_capacity", planning.OverCapacity(progress.TotalPoints, capacity)).
			Msg("sprint digest")
	}
	return ctx.Err()
}
