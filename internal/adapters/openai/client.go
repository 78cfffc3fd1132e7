/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"

	"github.com/agileflow/engine/internal/config"
	"github.com/agileflow/engine/internal/domain"
)

type Client struct {
	key   string
	model string
	cli   openai.Client
	log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	model := strings.TrimSpace(cfg.OpenAIModel)
	if model == "" {
		model = "gpt-4.1-mini"
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey))
	return &Client{key: cfg.OpenAIKey, model: model, cli: cli, log: log}
}

// EstimateComplexity asks the model for a Fibonacci story-point estimate with
// a short rationale. Errors are returned raw; the service layer owns the
// fallback policy.
func (c *Client) EstimateComplexity(ctx context.Context, title, description, extra string) (domain.Estimate, error) {
	if strings.TrimSpace(c.key) == "" {
		return domain.Estimate{}, errors.New("openai: missing key")
	}
	c.log.Info().Str("model", c.model).Msg("openai EstimateComplexity call")
	user := fmt.Sprintf("Title: %s\nDescription: %s", title, description)
	if strings.TrimSpace(extra) != "" {
		user += "\nContext: " + extra
	}
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("Acting as an expert Agile Lead, estimate the story points (Fibonacci: 1, 2, 3, 5, 8, 13) for this task. Return ONLY a JSON object with \"points\" (number) and \"reasoning\" (short string)."),
			openai.UserMessage(user),
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Estimate{}, err
	}
	if len(resp.Choices) == 0 {
		return domain.Estimate{}, errors.New("openai: no choices")
	}
	var out struct {
		Points    float64 `json:"points"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return domain.Estimate{}, fmt.Errorf("openai: bad estimate payload: %w", err)
	}
	return domain.Estimate{Points: int(out.Points), Reasoning: out.Reasoning}, nil
}

// AnalyzeSprint produces a free-text review of a sprint plan: goal clarity,
// risks, suggested focus areas.
func (c *Client) AnalyzeSprint(ctx context.Context, sprint domain.Sprint, issues []domain.Issue) (string, error) {
	if strings.TrimSpace(c.key) == "" {
		return "", errors.New("openai: missing key")
	}
	c.log.Info().Str("model", c.model).Str("sprint", sprint.ID).Msg("openai AnalyzeSprint call")
	type slim struct {
		Title    string          `json:"title"`
		Points   int             `json:"points"`
		Priority domain.Priority `json:"priority"`
	}
	slims := make([]slim, 0, len(issues))
	for _, i := range issues {
		slims = append(slims, slim{Title: i.Title, Points: i.StoryPoints, Priority: i.Priority})
	}
	sprintJSON, _ := json.Marshal(sprint)
	issuesJSON, _ := json.Marshal(slims)
	prompt := fmt.Sprintf(
		"Analyze the following Agile Sprint plan and provide a concise summary including:\n"+
			"1. A clear Sprint Goal suggestion if the current one is vague.\n"+
			"2. Potential risks based on issue complexity and priorities.\n"+
			"3. Suggested focus areas for the team.\n\n"+
			"Sprint: %s\nIssues: %s", sprintJSON, issuesJSON)
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a senior agile coach reviewing a sprint plan."),
			openai.UserMessage(prompt),
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
