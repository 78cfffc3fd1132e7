/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/services"
	"github.com/agileflow/engine/internal/store"
)

func NewRouter(cfg config.Config, log zerolog.Logger, st *store.Store, svc *services.Service) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		c.Next()
		log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
	})

	h := NewHandlers(cfg, log, st, svc)

	r.GET("/healthz", h.Healthz)

	r.GET("/users", h.ListUsers)
	r.POST("/users", h.CreateUser)
	r.PATCH("/users/:id", h.UpdateUser)

	r.GET("/teams", h.ListTeams)
	r.POST("/teams", h.CreateTeam)
	r.GET("/teams/active", h.ActiveTeam)
	r.PATCH("/teams/:id", h.UpdateTeam)
	r.DELETE("/teams/:id", h.DeleteTeam)
	r.POST("/teams/:id/select", h.SelectTeam)

	r.POST("/teams/:id/members", h.AddMember)
	r.PATCH("/teams/:id/members/:userId", h.UpdateMember)
	r.DELETE("/teams/:id/members/:userId", h.RemoveMember)

	r.POST("/teams/:id/sprints", h.CreateSprint)
	r.POST("/teams/:id/sprints/:sprintId/start", h.StartSprint)
	r.POST("/teams/:id/sprints/:sprintId/complete", h.CompleteSprint)
	r.GET("/teams/:id/sprints/:sprintId/progress", h.SprintProgress)
	r.POST("/teams/:id/sprints/:sprintId/analyze", h.AnalyzeSprint)
	r.GET("/teams/:id/sprints/:sprintId/report.csv", h.SprintReportCSV)
	r.GET("/teams/:id/capacity", h.TeamCapacity)

	r.GET("/issues", h.ListIssues)
	r.POST("/issues", h.CreateIssue)
	r.PATCH("/issues/:id", h.UpdateIssue)
	r.POST("/issues/delete", h.DeleteIssues)
	r.POST("/issues/:id/move-to-sprint", h.MoveIssueToSprint)
	r.POST("/issues/:id/move-to-backlog", h.MoveIssueToBacklog)

	r.POST("/ai/estimate", h.Estimate)
	r.POST("/ai/estimate/async", h.EstimateAsync)
	r.GET("/ai/estimate/:id", h.EstimateStatus)
	r.POST("/ai/refine", h.Refine)

	return r
}
