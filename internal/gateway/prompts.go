package gateway

import "fmt"

const analysisPromptTemplate = `You are an AI misinformation and scam detector for text and images, focused on India.
Analyze the user's content, which may include text and/or an image.
Look for indicators of scams, fake news, or manipulation.
Decide if the content is REAL, FAKE, or UNSURE.
Respond ONLY in valid JSON:
{
  "result": "FAKE" | "REAL" | "UNSURE",
  "confidence": 0-100,
  "reason": "Short technical reason for your conclusion based on the content provided.",
  "why_card_en": "1-2 simple bullet point explanation in English.",
  "why_card_hi": "1-2 simple bullet point explanation in Hindi.",
  "red_flags": ["list of risk indicators like 'Suspicious QR Code', 'Urgent Action Required', etc."]
}
User's query text: "%s"
`

const imageDescriptionPrompt = `You are an AI image analyst. Your task is to analyze the provided image and its caption.
1.  **Describe the image:** Briefly describe the key elements in the image.
2.  **Check for Manipulation:** Assess if the image shows signs of being digitally altered, photoshopped, or AI-generated.
3.  **Contextual Analysis:** Based on the image and caption, provide a brief conclusion about its likely authenticity or purpose.
Respond in clear, concise Markdown.
`

func analysisPrompt(query string) string {
	return fmt.Sprintf(analysisPromptTemplate, query)
}

func captionNote(caption string) string {
	return fmt.Sprintf("**User's Caption:** _%s_\n\n---", caption)
}
