// Package gateway talks to the generative-language service. It is the
// single absorption point for model failures: transport errors, safety
// blocks, and unparseable output all become the fallback verdict or a
// fixed error string here, never an error the caller has to handle.
package gateway

import (
	"context"

	"github.com/techgini/verifybot/internal/models"
)

// Image is raw image content attached to a request.
type Image struct {
	Data     []byte
	MimeType string
}

// ModelGateway is the prompt-in, verdict-or-text-out interface to the
// remote model.
type ModelGateway interface {
	// AnalyzeStructured runs the misinformation analysis on text
	// and/or an image. It never fails: any error yields the fallback
	// verdict after being logged.
	AnalyzeStructured(ctx context.Context, text string, img *Image) models.Verdict

	// DescribeImage returns a descriptive, non-classifying analysis
	// of an image, or a fixed error string on failure.
	DescribeImage(ctx context.Context, img *Image, caption string) string

	// Chat answers a freeform message given prior turns, or a fixed
	// error string on failure.
	Chat(ctx context.Context, text string, history []models.Turn) string
}

// ErrorMarker appears in every fixed error string the gateway returns.
// The session manager uses it to keep failed exchanges out of history.
const ErrorMarker = "⚠️"

const (
	describeErrorReply = "⚠️ An error occurred while describing the image."
	chatErrorReply     = "⚠️ The AI is currently unavailable."
)

// rawResponseLogLimit bounds raw model output written to the audit log.
const rawResponseLogLimit = 1000
