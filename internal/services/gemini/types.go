package gemini

import "google.golang.org/genai"

// TextPart returns a text part.
func TextPart(text string) *genai.Part {
	return genai.NewPartFromText(text)
}

// BlobPart returns an inline data part holding data.
func BlobPart(mimeType string, data []byte) *genai.Part {
	return genai.NewPartFromBytes(data, mimeType)
}

// Request is one generateContent call: the prompt and its decoding settings.
type Request struct {
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokenCount     int
	CandidatesTokenCount int
	TotalTokenCount      int
}

// Response is the text produced by the first candidate.
type Response struct {
	Text         string
	FinishReason string
	Usage        Usage
}

func usageOf(meta *genai.GenerateContentResponseUsageMetadata) Usage {
	if meta == nil {
		return Usage{}
	}
	return Usage{
		PromptTokenCount:     int(meta.PromptTokenCount),
		CandidatesTokenCount: int(meta.CandidatesTokenCount),
		TotalTokenCount:      int(meta.TotalTokenCount),
	}
}
