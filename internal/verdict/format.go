package verdict

import (
	"fmt"
	"math"
	"strings"

	"github.com/techgini/verifybot/internal/models"
)

const barCells = 10

// Format renders a verdict as the Markdown reply sent to the user.
// Pure: the same verdict always yields byte-identical output. The
// red-classification call-to-action line is appended by the analysis
// orchestrator, not here.
func Format(v models.Verdict) string {
	result := titleCase(string(v.Result))

	var title string
	switch Classify(v) {
	case models.ClassificationRed:
		title = fmt.Sprintf("🚨 *Result: %s* (Red Flag)", result)
	case models.ClassificationGreen:
		title = fmt.Sprintf("✅ *Result: %s* (Green Flag)", result)
	default:
		title = fmt.Sprintf("⚠️ *Result: %s* (Yellow Flag)", result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n*Confidence:* %s (%d%%)\n*Reason:* %s\n\n",
		title, confidenceBar(v.Confidence), v.Confidence, v.Reason)
	fmt.Fprintf(&b, "🇬🇧 *Summary:*\n> %s\n\n🇮🇳 *सारांश:*\n> %s\n", v.WhyCardEN, v.WhyCardHI)

	if len(v.RedFlags) > 0 {
		b.WriteString("\n*🔎 Textual Red Flags:*\n")
		for i, flag := range v.RedFlags {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "• _%s_", flag)
		}
	}

	return b.String()
}

// confidenceBar renders a 10-cell bar. The fill count rounds half up:
// 25% fills 3 cells, 24% fills 2.
func confidenceBar(confidence int) string {
	filled := int(math.Floor(float64(confidence)/barCells + 0.5))
	if filled < 0 {
		filled = 0
	}
	if filled > barCells {
		filled = barCells
	}
	return strings.Repeat("🟩", filled) + strings.Repeat("⬜", barCells-filled)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
