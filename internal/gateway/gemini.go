package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/models"
	"github.com/techgini/verifybot/internal/verdict"
	"go.uber.org/zap"
)

const geminiBase = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient is the default ModelGateway, calling the Gemini REST API
// directly.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	audit      *audit.Logger
	logger     *zap.Logger
}

func NewGeminiClient(apiKey, model string, timeout time.Duration, auditLog *audit.Logger, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBase,
		timeout:    timeout,
		httpClient: &http.Client{},
		audit:      auditLog,
		logger:     logger,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"response_mime_type,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *GeminiClient) AnalyzeStructured(ctx context.Context, text string, img *Image) models.Verdict {
	parts := []geminiPart{{Text: analysisPrompt(text)}}
	if img != nil {
		parts = append(parts, imagePart(img))
	}

	raw, err := c.generate(ctx, []geminiContent{{Role: models.RoleUser, Parts: parts}}, true)
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

func (c *GeminiClient) DescribeImage(ctx context.Context, img *Image, caption string) string {
	parts := []geminiPart{
		{Text: imageDescriptionPrompt},
		{Text: captionNote(caption)},
		imagePart(img),
	}

	raw, err := c.generate(ctx, []geminiContent{{Role: models.RoleUser, Parts: parts}}, false)
	if err != nil {
		c.logger.Error("image description failed", zap.Error(err))
		c.audit.System(audit.ActionError, "Image description failed: "+err.Error())
		return describeErrorReply
	}
	return raw
}

func (c *GeminiClient) Chat(ctx context.Context, text string, history []models.Turn) string {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, turn := range history {
		parts := make([]geminiPart, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			parts = append(parts, geminiPart{Text: p})
		}
		contents = append(contents, geminiContent{Role: turn.Role, Parts: parts})
	}
	contents = append(contents, geminiContent{Role: models.RoleUser, Parts: []geminiPart{{Text: text}}})

	raw, err := c.generate(ctx, contents, false)
	if err != nil {
		c.logger.Error("chat failed", zap.Error(err))
		c.audit.System(audit.ActionError, "Chat error: "+err.Error())
		return chatErrorReply
	}
	return raw
}

// generate runs one generateContent call and returns the concatenated
// candidate text. Empty or safety-blocked output is an error.
func (c *GeminiClient) generate(ctx context.Context, contents []geminiContent, jsonOutput bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := geminiRequest{Contents: contents}
	if jsonOutput {
		reqBody.GenerationConfig = &geminiGenerationConfig{ResponseMIMEType: "application/json"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model + ":generateContent?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generateContent request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini generateContent HTTP %d: %s", resp.StatusCode, body)
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("blocked by AI safety filter: %s", result.PromptFeedback.BlockReason)
	}

	var b strings.Builder
	for _, cand := range result.Candidates {
		for _, part := range cand.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("blocked by AI safety filter")
	}
	return text, nil
}

func imagePart(img *Image) geminiPart {
	return geminiPart{InlineData: &geminiInlineData{
		MimeType: img.MimeType,
		Data:     base64.StdEncoding.EncodeToString(img.Data),
	}}
}
