package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/models"
	"go.uber.org/zap"
)

func testGeminiClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	auditLog := audit.Open(filepath.Join(t.TempDir(), "bot_logs.txt"), zap.NewNop())
	t.Cleanup(func() { auditLog.Close() })

	c := NewGeminiClient("test-key", "gemini-1.5-flash-latest", 5*time.Second, auditLog, zap.NewNop())
	c.baseURL = srv.URL
	return c
}

func geminiTextResponse(text string) []byte {
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	data, _ := json.Marshal(payload)
	return data
}

func TestAnalyzeStructuredSuccess(t *testing.T) {
	var gotReq geminiRequest
	c := testGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-1.5-flash-latest:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Write(geminiTextResponse(`{"result":"FAKE","confidence":80,"reason":"scam"}`))
	})

	v := c.AnalyzeStructured(context.Background(), "Win a free iPhone now, click this link", nil)

	if v.Result != models.ResultFake || v.Confidence != 80 {
		t.Fatalf("verdict = %+v, want FAKE/80", v)
	}
	if gotReq.GenerationConfig == nil || gotReq.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("request did not ask for JSON output: %+v", gotReq.GenerationConfig)
	}
	if len(gotReq.Contents) != 1 || !strings.Contains(gotReq.Contents[0].Parts[0].Text, "Win a free iPhone now") {
		t.Fatalf("prompt does not embed query: %+v", gotReq.Contents)
	}
}

func TestAnalyzeStructuredAttachesImage(t *testing.T) {
	var gotReq geminiRequest
	c := testGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write(geminiTextResponse(`{"result":"UNSURE"}`))
	})

	img := &Image{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"}
	c.AnalyzeStructured(context.Background(), "check this", img)

	parts := gotReq.Contents[0].Parts
	if len(parts) != 2 || parts[1].InlineData == nil {
		t.Fatalf("image part missing: %+v", parts)
	}
	if parts[1].InlineData.MimeType != "image/jpeg" {
		t.Fatalf("MimeType = %q, want image/jpeg", parts[1].InlineData.MimeType)
	}
}

func TestAnalyzeStructuredFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "unparseable verdict",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write(geminiTextResponse("I cannot answer in JSON, sorry"))
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"candidates":[]}`))
			},
		},
		{
			name: "safety block",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testGeminiClient(t, tt.handler)
			v := c.AnalyzeStructured(context.Background(), "some text", nil)
			if v.Result != models.ResultUnsure || v.Confidence != 40 {
				t.Fatalf("verdict = %+v, want fallback UNSURE/40", v)
			}
			if v.Reason != "AI error occurred." {
				t.Fatalf("Reason = %q, want fallback reason", v.Reason)
			}
		})
	}
}

func TestChatSendsHistoryAndQuery(t *testing.T) {
	var gotReq geminiRequest
	c := testGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		w.Write(geminiTextResponse("hello there"))
	})

	history := []models.Turn{
		{Role: models.RoleUser, Parts: []string{"hi"}},
		{Role: models.RoleModel, Parts: []string{"hello"}},
	}
	got := c.Chat(context.Background(), "how are you?", history)

	if got != "hello there" {
		t.Fatalf("Chat = %q, want %q", got, "hello there")
	}
	if len(gotReq.Contents) != 3 {
		t.Fatalf("len(contents) = %d, want 3", len(gotReq.Contents))
	}
	if gotReq.Contents[1].Role != "model" {
		t.Fatalf("history role = %q, want model", gotReq.Contents[1].Role)
	}
	if gotReq.Contents[2].Parts[0].Text != "how are you?" {
		t.Fatalf("query part = %q", gotReq.Contents[2].Parts[0].Text)
	}
}

func TestChatFailureReturnsMarkedError(t *testing.T) {
	c := testGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})

	got := c.Chat(context.Background(), "hi", nil)
	if got != chatErrorReply {
		t.Fatalf("Chat = %q, want %q", got, chatErrorReply)
	}
	if !strings.Contains(got, ErrorMarker) {
		t.Fatal("error reply does not carry the error marker")
	}
}

func TestDescribeImageFailure(t *testing.T) {
	c := testGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	img := &Image{Data: []byte{1}, MimeType: "image/jpeg"}
	if got := c.DescribeImage(context.Background(), img, "caption"); got != describeErrorReply {
		t.Fatalf("DescribeImage = %q, want %q", got, describeErrorReply)
	}
}
