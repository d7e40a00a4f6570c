package verdict

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/techgini/verifybot/internal/models"
)

// Classification thresholds. Inclusive: a FAKE verdict at exactly 65
// is RED, a REAL verdict at exactly 60 is GREEN.
const (
	FakeThreshold = 65
	RealThreshold = 60
)

// ErrParse marks a model response that is not a usable verdict. The
// parser never substitutes a fallback itself; that is the gateway's job.
var ErrParse = errors.New("malformed verdict response")

type rawVerdict struct {
	Result     *string  `json:"result"`
	Confidence *float64 `json:"confidence"`
	Reason     *string  `json:"reason"`
	WhyCardEN  *string  `json:"why_card_en"`
	WhyCardHI  *string  `json:"why_card_hi"`
	RedFlags   []string `json:"red_flags"`
}

// Parse decodes the model's JSON text into a Verdict, filling defaults
// for missing optional fields. Markdown code fences around the JSON are
// stripped first, since models wrap their output despite instructions.
func Parse(text string) (models.Verdict, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return models.Verdict{}, fmt.Errorf("%w: empty response", ErrParse)
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	v := models.Verdict{
		Result:    models.ResultUnsure,
		Reason:    "N/A",
		WhyCardEN: "N/A",
		WhyCardHI: "N/A",
		RedFlags:  raw.RedFlags,
	}

	if raw.Result != nil {
		switch models.Result(strings.ToUpper(strings.TrimSpace(*raw.Result))) {
		case models.ResultFake:
			v.Result = models.ResultFake
		case models.ResultReal:
			v.Result = models.ResultReal
		}
	}
	if raw.Confidence != nil {
		v.Confidence = clampConfidence(int(*raw.Confidence))
	}
	if raw.Reason != nil && *raw.Reason != "" {
		v.Reason = *raw.Reason
	}
	if raw.WhyCardEN != nil && *raw.WhyCardEN != "" {
		v.WhyCardEN = *raw.WhyCardEN
	}
	if raw.WhyCardHI != nil && *raw.WhyCardHI != "" {
		v.WhyCardHI = *raw.WhyCardHI
	}

	return v, nil
}

// Classify derives the traffic-light rating from a verdict. Total and
// deterministic: anything short of its threshold is YELLOW.
func Classify(v models.Verdict) models.Classification {
	switch {
	case v.Result == models.ResultFake && v.Confidence >= FakeThreshold:
		return models.ClassificationRed
	case v.Result == models.ResultReal && v.Confidence >= RealThreshold:
		return models.ClassificationGreen
	default:
		return models.ClassificationYellow
	}
}

// Fallback is the verdict substituted for any analysis failure:
// transport error, safety block, or unparseable output.
func Fallback() models.Verdict {
	return models.Verdict{
		Result:     models.ResultUnsure,
		Confidence: 40,
		Reason:     "AI error occurred.",
		WhyCardEN:  "Could not analyze due to an AI error.",
		WhyCardHI:  "एआई त्रुटि के कारण विश्लेषण विफल हुआ।",
	}
}

// NoContent is the verdict for an analysis request carrying neither
// text nor an image. The model is never called for these.
func NoContent() models.Verdict {
	return models.Verdict{
		Result:    models.ResultUnsure,
		Reason:    "No content provided.",
		WhyCardEN: "No content to analyze.",
		WhyCardHI: "विश्लेषण के लिए कोई सामग्री नहीं है।",
	}
}

func clampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
