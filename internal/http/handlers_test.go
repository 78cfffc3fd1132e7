/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/domain"
	"github.com/agileflow/engine/internal/services"
	"github.com/agileflow/engine/internal/store"
)

type stubLLM struct{}

func (stubLLM) EstimateComplexity(ctx context.Context, title, description, extra string) (domain.Estimate, error) {
	return domain.Estimate{Points: 3, Reasoning: "stub"}, nil
}

func (stubLLM) AnalyzeSprint(ctx context.Context, sprint domain.Sprint, issues []domain.Issue) (string, error) {
	return "stub analysis", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{AppEnv: "test", OpenAITimeout: time.Second, IssueKeyPrefix: "AF"}
	st := store.New(cfg, zerolog.Nop())
	svc := services.New(cfg, zerolog.Nop(), st, stubLLM{})
	return NewRouter(cfg, zerolog.Nop(), st, svc), st
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateIssueUsesActorHeader(t *testing.T) {
	r, st := newTestRouter(t)
	reporter, err := st.AddUser(domain.UserDraft{Name: "Alex"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/issues", map[string]any{"title": "Add login"},
		map[string]string{"X-User-ID": reporter.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "AF-101", body["key"])
	assert.Equal(t, reporter.ID, body["reporter"].(map[string]any)["id"])
}

func TestCreateIssueUnknownActor(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/issues", map[string]any{"title": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NotFound", decode(t, w)["errorKind"])
}

func TestStartSprintConflictShape(t *testing.T) {
	r, st := newTestRouter(t)
	team, err := st.AddTeam("Platform")
	require.NoError(t, err)
	first, err := st.AddSprint(team.ID, "Sprint 1", "", time.Now(), time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	second, err := st.AddSprint(team.ID, "Sprint 2", "", time.Now(), time.Now().AddDate(0, 0, 28))
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/teams/"+team.ID+"/sprints/"+first.ID+"/start", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = doJSON(t, r, http.MethodPost, "/teams/"+team.ID+"/sprints/"+second.ID+"/start", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "SprintAlreadyActive", body["errorKind"])
}

func TestCompleteSprintReportsRollover(t *testing.T) {
	r, st := newTestRouter(t)
	reporter, err := st.AddUser(domain.UserDraft{Name: "Alex"})
	require.NoError(t, err)
	team, err := st.AddTeam("Platform")
	require.NoError(t, err)
	sprint, err := st.AddSprint(team.ID, "Sprint 1", "", time.Now(), time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)
	_, err = st.StartSprint(team.ID, sprint.ID)
	require.NoError(t, err)
	for _, status := range []domain.IssueStatus{domain.StatusTodo, domain.StatusInProgress, domain.StatusDone} {
		_, err := st.CreateIssue(reporter.ID, domain.IssueDraft{Title: "w", SprintID: sprint.ID, Status: status})
		require.NoError(t, err)
	}

	w := doJSON(t, r, http.MethodPost, "/teams/"+team.ID+"/sprints/"+sprint.ID+"/complete", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["rolledOverCount"])

	// closed means closed
	w = doJSON(t, r, http.MethodPost, "/teams/"+team.ID+"/sprints/"+sprint.ID+"/complete", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "InvalidTransition", decode(t, w)["errorKind"])
}

func TestMoveIssueWithoutActiveSprint(t *testing.T) {
	r, st := newTestRouter(t)
	reporter, err := st.AddUser(domain.UserDraft{Name: "Alex"})
	require.NoError(t, err)
	team, err := st.AddTeam("Platform")
	require.NoError(t, err)
	issue, err := st.CreateIssue(reporter.ID, domain.IssueDraft{Title: "w"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/issues/"+issue.ID+"/move-to-sprint", map[string]any{"teamId": team.ID}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NoActiveSprint", body["errorKind"])
}

func TestCreateSprintValidatesDates(t *testing.T) {
	r, st := newTestRouter(t)
	team, err := st.AddTeam("Platform")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/teams/"+team.ID+"/sprints",
		map[string]any{"name": "Sprint 1", "startDate": "junk", "endDate": "2025-06-14"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/teams/"+team.ID+"/sprints",
		map[string]any{"name": "Sprint 1", "startDate": "2025-06-01", "endDate": "2025-06-14"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, string(domain.SprintFuture), decode(t, w)["status"])
}

func TestTeamCapacityEndpoint(t *testing.T) {
	r, st := newTestRouter(t)
	team, err := st.AddTeam("Platform")
	require.NoError(t, err)
	for _, tc := range []struct {
		name     string
		capacity float64
		focus    float64
	}{{"A", 10, 1.0}, {"B", 20, 0.75}} {
		u, err := st.AddUser(domain.UserDraft{Name: tc.name})
		require.NoError(t, err)
		_, err = st.AddMember(team.ID, u.ID)
		require.NoError(t, err)
		_, err = st.UpdateMember(team.ID, u.ID, domain.MemberPatch{Capacity: &tc.capacity, FocusFactor: &tc.focus})
		require.NoError(t, err)
	}

	w := doJSON(t, r, http.MethodGet, "/teams/"+team.ID+"/capacity", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 25.0, body["teamCapacity"])
	assert.Equal(t, false, body["overCapacity"])
}

func TestEstimateEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/ai/estimate", map[string]any{"title": "Add login"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(3), body["points"])
	assert.Equal(t, "stub", body["reasoning"])
}

func TestSprintReportEndpoint(t *testing.T) {
	r, st := newTestRouter(t)
	team, err := st.AddTeam("Platform")
	require.NoError(t, err)
	sprint, err := st.AddSprint(team.ID, "Sprint 1", "", time.Now(), time.Now().AddDate(0, 0, 14))
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/teams/"+team.ID+"/sprints/"+sprint.ID+"/report.csv", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "key,title,type,status,priority,points,assignee")
}
