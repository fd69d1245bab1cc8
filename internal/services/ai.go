package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
	model  string
}

// SuggestedTask is a task proposed by the model. It is never stored as is.
type SuggestedTask struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	EstimateHours float64 `json:"estimate_hours"`
	Milestone     bool    `json:"milestone"`
}

// Estimate converts the suggested hours to a duration.
func (t SuggestedTask) Estimate() time.Duration {
	return time.Duration(t.EstimateHours * float64(time.Hour)).Round(time.Minute)
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

// NewAIServiceWithConfig creates an AIService against a custom endpoint.
func NewAIServiceWithConfig(cfg openai.ClientConfig, model string) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// SuggestTasks breaks the description of a sprint down into tasks with
// effort estimates using an OpenAI chat model.
func (s *AIService) SuggestTasks(ctx context.Context, sprintName, text string) ([]SuggestedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You are a sprint planning assistant. Break the following description of the sprint %q down into concrete tasks.

Description:
%s

Answer with a JSON array of tasks in this format:
[
  {
    "name": "short task name",
    "description": "what has to be done",
    "estimate_hours": 4,
    "milestone": false
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- estimate_hours is the expected effort in working hours; milestones have 0
- Return JSON only, without any explanation`, sprintName, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a markdown code fence around the model answer.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
