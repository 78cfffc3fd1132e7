/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/domain"
	"github.com/agileflow/engine/internal/planning"
	"github.com/agileflow/engine/internal/services"
	"github.com/agileflow/engine/internal/store"
)

type Handlers struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Store
	svc   *services.Service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, st *store.Store, svc *services.Service) *Handlers {
	return &Handlers{cfg: cfg, log: log, store: st, svc: svc}
}

func statusFor(err error) int {
	switch domain.ErrorKind(err) {
	case "NotFound":
		return http.StatusNotFound
	case "ValidationError":
		return http.StatusBadRequest
	case "InvalidTransition", "NoActiveSprint", "SprintAlreadyActive":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error(), "errorKind": domain.ErrorKind(err)})
}

// lifecycle operations report the structured {success, errorKind} result so
// callers can branch on outcome without parsing messages.
func lifecycleFail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"success": false, "errorKind": domain.ErrorKind(err)})
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ---- Users ----

func (h *Handlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Users())
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var draft domain.UserDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.store.AddUser(draft)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	var patch domain.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.store.UpdateUser(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ---- Teams ----

func (h *Handlers) ListTeams(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Teams())
}

func (h *Handlers) CreateTeam(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	team, err := h.store.AddTeam(body.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (h *Handlers) UpdateTeam(c *gin.Context) {
	var patch domain.TeamPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	team, err := h.store.UpdateTeam(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (h *Handlers) DeleteTeam(c *gin.Context) {
	if err := h.store.DeleteTeam(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) SelectTeam(c *gin.Context) {
	if err := h.store.SelectTeam(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) ActiveTeam(c *gin.Context) {
	team, err := h.store.ActiveTeam()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// ---- Members ----

func (h *Handlers) AddMember(c *gin.Context) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member, err := h.store.AddMember(c.Param("id"), body.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handlers) UpdateMember(c *gin.Context) {
	var patch domain.MemberPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member, err := h.store.UpdateMember(c.Param("id"), c.Param("userId"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *Handlers) RemoveMember(c *gin.Context) {
	if err := h.store.RemoveMember(c.Param("id"), c.Param("userId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ---- Sprints ----

func (h *Handlers) CreateSprint(c *gin.Context) {
	var body struct {
		Name      string `json:"name"`
		Goal      string `json:"goal"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
		return
	}
	sprint, err := h.store.AddSprint(c.Param("id"), body.Name, body.Goal, start, end)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sprint)
}

func (h *Handlers) StartSprint(c *gin.Context) {
	sprint, err := h.store.StartSprint(c.Param("id"), c.Param("sprintId"))
	if err != nil {
		lifecycleFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sprint": sprint})
}

func (h *Handlers) CompleteSprint(c *gin.Context) {
	res, err := h.store.CompleteSprint(c.Param("id"), c.Param("sprintId"))
	if err != nil {
		lifecycleFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sprint": res.Sprint, "rolledOverCount": res.RolledOver})
}

// ---- Issues ----

func (h *Handlers) ListIssues(c *gin.Context) {
	if sprintID := c.Query("sprintId"); sprintID != "" {
		c.JSON(http.StatusOK, h.store.SprintIssues(sprintID))
		return
	}
	if c.Query("backlog") == "true" {
		c.JSON(http.StatusOK, h.store.BacklogIssues())
		return
	}
	c.JSON(http.StatusOK, h.store.Issues())
}

func (h *Handlers) CreateIssue(c *gin.Context) {
	var draft domain.IssueDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issue, err := h.store.CreateIssue(c.GetHeader("X-User-ID"), draft)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *Handlers) UpdateIssue(c *gin.Context) {
	var patch domain.IssuePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issue, err := h.store.UpdateIssue(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handlers) DeleteIssues(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	removed := h.store.DeleteIssues(body.IDs)
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})
}

func (h *Handlers) MoveIssueToSprint(c *gin.Context) {
	var body struct {
		TeamID string `json:"teamId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	issue, err := h.store.MoveIssueToSprint(body.TeamID, c.Param("id"))
	if err != nil {
		lifecycleFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

func (h *Handlers) MoveIssueToBacklog(c *gin.Context) {
	issue, err := h.store.MoveIssueToBacklog(c.Param("id"))
	if err != nil {
		lifecycleFail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "issue": issue})
}

// ---- Capacity & progress ----

func (h *Handlers) TeamCapacity(c *gin.Context) {
	team, err := h.store.TeamByID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	var sprintIssues []domain.Issue
	for _, sp := range team.Sprints {
		if sp.Status == domain.SprintActive {
			sprintIssues = h.store.SprintIssues(sp.ID)
			break
		}
	}
	capacity := planning.TeamCapacity(team)
	progress := planning.Progress(sprintIssues)
	c.JSON(http.StatusOK, gin.H{
		"teamCapacity":    capacity,
		"averageFocusPct": planning.AverageFocusPct(team),
		"workloads":       planning.Workloads(team, sprintIssues),
		"committedPoints": progress.TotalPoints,
		"overCapacity":    planning.OverCapacity(progress.TotalPoints, capacity),
	})
}

func (h *Handlers) SprintProgress(c *gin.Context) {
	team, err := h.store.TeamByID(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	sprintID := c.Param("sprintId")
	found := false
	var sprint domain.Sprint
	for _, sp := range team.Sprints {
		if sp.ID == sprintID {
			sprint, found = sp, true
			break
		}
	}
	if !found {
		fail(c, domain.ErrSprintNotFound)
		return
	}
	issues := h.store.SprintIssues(sprintID)
	progress := planning.Progress(issues)
	capacity := planning.TeamCapacity(team)
	days := int(sprint.EndDate.Sub(sprint.StartDate).Hours() / 24)
	c.JSON(http.StatusOK, gin.H{
		"sprint":        sprint,
		"progress":      progress,
		"teamCapacity":  capacity,
		"overCapacity":  planning.OverCapacity(progress.TotalPoints, capacity),
		"idealBurndown": planning.IdealBurndown(progress.TotalPoints, days),
	})
}

// ---- AI ----

func (h *Handlers) Estimate(c *gin.Context) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Context     string `json:"context"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.EstimateComplexity(c.Request.Context(), body.Title, body.Description, body.Context))
}

func (h *Handlers) EstimateAsync(c *gin.Context) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Context     string `json:"context"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job := h.svc.StartEstimate(body.Title, body.Description, body.Context)
	c.JSON(http.StatusAccepted, job)
}

func (h *Handlers) EstimateStatus(c *gin.Context) {
	job, ok := h.svc.EstimateStatus(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "estimate job not found", "errorKind": "NotFound"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *Handlers) AnalyzeSprint(c *gin.Context) {
	text, err := h.svc.AnalyzeSprint(c.Request.Context(), c.Param("id"), c.Param("sprintId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": text})
}

func (h *Handlers) Refine(c *gin.Context) {
	var body struct {
		Story          string `json:"story"`
		Tech           string `json:"tech"`
		DevComplexity  string `json:"devComplexity"`
		TestComplexity string `json:"testComplexity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.RefineEstimate(c.Request.Context(), body.Story, body.Tech, body.DevComplexity, body.TestComplexity))
}

// ---- Reports ----

func (h *Handlers) SprintReportCSV(c *gin.Context) {
	data, err := h.svc.SprintReportCSV(c.Param("id"), c.Param("sprintId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=sprint-report.csv")
	c.Data(http.StatusOK, "text/csv", data)
}
