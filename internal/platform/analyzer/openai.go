package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vitalboard/vitalboard/internal/domain/report"
)

const maxTokens = 1500

const systemPrompt = `You are a medical analysis agent. You receive REDACTED blood work text.
Convert it into JSON of the form {"biomarkers": [{"name": "Vitamin D", "value": 20, "unit": "ng/mL", "flag": "LOW"}]}.
Flag values are "LOW", "HIGH", or omitted when in range.
If PREVIOUS_DATA is provided, use it only to keep naming consistent.
OUTPUT VALID JSON ONLY.`

// OpenAIAnalyzer extracts biomarkers through a chat-completion call with a
// JSON response format.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
}

func NewOpenAIAnalyzer(apiKey, model string) *OpenAIAnalyzer {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIAnalyzer{client: openai.NewClient(apiKey), model: model}
}

type extraction struct {
	Biomarkers []report.BiomarkerReading `json:"biomarkers"`
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string, previous []report.BiomarkerReading) ([]report.BiomarkerReading, error) {
	contextStr := "PREVIOUS_DATA: None"
	if len(previous) > 0 {
		prev, err := json.Marshal(previous)
		if err == nil {
			contextStr = "PREVIOUS_DATA: " + string(prev)
		}
	}

	req := openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text + "\n\n" + contextStr},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analysis completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("analysis completion: empty response")
	}

	return parseBiomarkers(resp.Choices[0].Message.Content)
}

// parseBiomarkers accepts either the {"biomarkers": [...]} envelope or a
// bare reading array, since models emit both.
func parseBiomarkers(content string) ([]report.BiomarkerReading, error) {
	content = strings.TrimSpace(content)
	var env extraction
	if err := json.Unmarshal([]byte(content), &env); err == nil && len(env.Biomarkers) > 0 {
		return env.Biomarkers, nil
	}
	var bare []report.BiomarkerReading
	if err := json.Unmarshal([]byte(content), &bare); err == nil {
		return bare, nil
	}
	return nil, fmt.Errorf("analysis response is not biomarker JSON")
}
