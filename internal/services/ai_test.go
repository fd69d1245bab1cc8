package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

func (suite *ServiceTestSuite) newAIServer(content string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		suite.Contains(string(body), "Sprint 1")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: openai.GPT4o,
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		})
	}))
	suite.T().Cleanup(server.Close)
	return server
}

func (suite *ServiceTestSuite) withAI(server *httptest.Server) *TaskService {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	ai := NewAIServiceWithConfig(cfg, openai.GPT4o)

	svc := *suite.tasks
	svc.aiService = ai
	return &svc
}

func (suite *ServiceTestSuite) TestSuggestTasks() {
	server := suite.newAIServer("```json\n" + `[
		{"name": "Write API", "description": "endpoints", "estimate_hours": 6.5},
		{"name": "  ", "estimate_hours": 2},
		{"name": "Launch", "estimate_hours": 3, "milestone": true},
		{"name": "Negative", "estimate_hours": -4}
	]` + "\n```")

	suggestions, err := suite.withAI(server).SuggestTasks(suite.ctx, SuggestTasksInput{SprintID: suite.sprint.ID, Text: "build the api and launch"})
	suite.Require().NoError(err)
	suite.Require().Len(suggestions, 3)
	suite.Equal("Write API", suggestions[0].Name)
	suite.Equal(hours(6)+30*time.Minute, suggestions[0].Estimate())
	suite.Zero(suggestions[1].EstimateHours)
	suite.Zero(suggestions[2].EstimateHours)
}

func (suite *ServiceTestSuite) TestSuggestTasks_Errors() {
	_, err := suite.tasks.SuggestTasks(suite.ctx, SuggestTasksInput{SprintID: suite.sprint.ID, Text: "x"})
	suite.ErrorIs(err, ErrAIServiceNotConfigured)

	svc := suite.withAI(suite.newAIServer("[]"))
	_, err = svc.SuggestTasks(suite.ctx, SuggestTasksInput{SprintID: suite.sprint.ID, Text: "nothing to do"})
	suite.ErrorIs(err, ErrAINoTasksGenerated)

	_, err = svc.SuggestTasks(suite.ctx, SuggestTasksInput{SprintID: suite.sprint.ID, Text: strings.Repeat("a", 9000)})
	suite.ErrorIs(err, ErrAITextTooLong)

	svc = suite.withAI(suite.newAIServer(`[{"name": ""}]`))
	_, err = svc.SuggestTasks(suite.ctx, SuggestTasksInput{SprintID: suite.sprint.ID, Text: "x"})
	suite.ErrorIs(err, ErrAINoValidTasks)
}
