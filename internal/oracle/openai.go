package oracle

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const defaultOpenAIModel = shared.ResponsesModel("gpt-4o-mini")

const openAISystemPrompt = `You are a receipt-processing assistant that repairs OCR-garbled German product names. Follow the response format in the user message exactly.`

// openAIClient implements the Client interface using the OpenAI Responses API.
type openAIClient struct {
	client *openai.Client
	model  shared.ResponsesModel
}

// newOpenAIClient creates a new OpenAI-backed correction client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := defaultOpenAIModel
	if cfg.Model != "" {
		model = shared.ResponsesModel(cfg.Model)
	}

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &openAIClient{client: &client, model: model}, nil
}

// CorrectName sends a correction request to OpenAI.
func (c *openAIClient) CorrectName(ctx context.Context, prompt string) (CorrectionResponse, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(openAISystemPrompt, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	})
	if err != nil {
		return CorrectionResponse{}, fmt.Errorf("call OpenAI: %w", err)
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return CorrectionResponse{}, fmt.Errorf("model returned an empty response")
	}

	return parseCorrectionResponse(output)
}
