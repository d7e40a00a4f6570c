package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/models"
	"github.com/techgini/verifybot/internal/verdict"
	"go.uber.org/zap"
)

// OpenAIClient is the alternative ModelGateway, selected with
// `model.provider: openai`. Same contract as the Gemini client.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	audit       *audit.Logger
	logger      *zap.Logger
}

func NewOpenAIClient(apiKey, model string, maxTokens int, temperature float64, timeout time.Duration, auditLog *audit.Logger, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		timeout:     timeout,
		audit:       auditLog,
		logger:      logger,
	}
}

func (c *OpenAIClient) AnalyzeStructured(ctx context.Context, text string, img *Image) models.Verdict {
	message := userMessage(analysisPrompt(text), img)

	raw, err := c.complete(ctx, []openai.ChatCompletionMessage{message}, true)
	if err != nil {
		c.logger.Error("structured analysis failed", zap.Error(err))
		c.audit.System(audit.ActionError, "Structured analysis failed: "+err.Error())
		return verdict.Fallback()
	}

	c.audit.System(audit.ActionRawAnalysisResponse, audit.Truncate(raw, rawResponseLogLimit))

	v, err := verdict.Parse(raw)
	if err != nil {
		c.logger.Error("failed to parse analysis response",
			zap.Error(err),
			zap.String("response", audit.Truncate(raw, rawResponseLogLimit)))
		c.audit.System(audit.ActionError, "Structured analysis failed: "+err.Error())
		return verdict.Fallback()
	}
	return v
}

func (c *OpenAIClient) DescribeImage(ctx context.Context, img *Image, caption string) string {
	message := userMessage(imageDescriptionPrompt+"\n"+captionNote(caption), img)

	raw, err := c.complete(ctx, []openai.ChatCompletionMessage{message}, false)
	if err != nil {
		c.logger.Error("image description failed", zap.Error(err))
		c.audit.System(audit.ActionError, "Image description failed: "+err.Error())
		return describeErrorReply
	}
	return raw
}

func (c *OpenAIClient) Chat(ctx context.Context, text string, history []models.Turn) string {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == models.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		for _, part := range turn.Parts {
			messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: part})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})

	raw, err := c.complete(ctx, messages, false)
	if err != nil {
		c.logger.Error("chat failed", zap.Error(err))
		c.audit.System(audit.ActionError, "Chat error: "+err.Error())
		return chatErrorReply
	}
	return raw
}

func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessage, jsonOutput bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("blocked by AI safety filter")
	}
	return resp.Choices[0].Message.Content, nil
}

func userMessage(text string, img *Image) openai.ChatCompletionMessage {
	if img == nil {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: text,
		}
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		},
	}
}
