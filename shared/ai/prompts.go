package ai

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"video-analyst/internal/models"
)

const (
	OpSummary          = "generate_summary"
	OpSectionBreakdown = "generate_section_breakdown"
	OpQuestion         = "answer_question"

	// MaxQuestionLength is measured in characters, not bytes.
	MaxQuestionLength = 2000

	videoMIMEType = "video/mp4"
)

const summaryPrompt = `Please analyze this YouTube video and provide a comprehensive summary of what it's about.
Include the main topics, key points, and overall theme of the video.
Provide a detailed summary in 2-3 paragraphs.`

const sectionBreakdownPrompt = `Please analyze this YouTube video and create a detailed section breakdown.
For each section, provide:
1. A descriptive title
2. The timestamp range (start and end times in MM:SS format)
3. A brief description of what happens in that section

You do not need to create too many sections -- a section should be approximately 1 or 2 minutes long.

Return the response in JSON format only, using this exact structure:
{
    "sections": [
        {
            "title": "Descriptive Title of Section 1",
            "time_range": {
                "start": "MM:SS",
                "end": "MM:SS"
            },
            "description": "Brief description of the content and events in Section 1."
        },
        {
            "title": "Descriptive Title of Section 2",
            "time_range": {
                "start": "MM:SS",
                "end": "MM:SS"
            },
            "description": "Brief description of the content and events in Section 2."
        }
    ]
}`

const questionPromptTemplate = `Based on the content of this YouTube video, please answer the following question:

Question: %s

Please provide a detailed answer based on what you can see and hear in the video.
If you reference specific parts of the video, please include approximate timestamps
in MM:SS format (e.g., "At around 02:30, the speaker mentions...").

If the question cannot be answered based on the video content, please say so.`

// Request is one prepared GenerateContent call.
type Request struct {
	Op       string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

func BuildSummaryRequest(ref *models.VideoReference) *Request {
	return &Request{
		Op:       OpSummary,
		Contents: videoContents(ref, summaryPrompt),
	}
}

// BuildSectionBreakdownRequest asks for JSON output. The reply is still
// handed back as plain text.
func BuildSectionBreakdownRequest(ref *models.VideoReference) *Request {
	return &Request{
		Op:       OpSectionBreakdown,
		Contents: videoContents(ref, sectionBreakdownPrompt),
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	}
}

// BuildQuestionRequest embeds the question exactly as given. Surrounding
// whitespace only matters to validation.
func BuildQuestionRequest(ref *models.VideoReference, question string) (*Request, error) {
	if _, err := ValidateQuestion(question); err != nil {
		return nil, err
	}
	return &Request{
		Op:       OpQuestion,
		Contents: videoContents(ref, fmt.Sprintf(questionPromptTemplate, question)),
	}, nil
}

// ValidateQuestion checks that the trimmed question is non-empty and within
// MaxQuestionLength, and returns the trimmed copy.
func ValidateQuestion(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", NewError(KindInvalidInput, OpQuestion, errors.New("question is required"))
	}
	if n := utf8.RuneCountInString(q); n > MaxQuestionLength {
		return "", NewError(KindInvalidInput, OpQuestion,
			fmt.Errorf("question is %d characters, limit is %d", n, MaxQuestionLength))
	}
	return q, nil
}

// The video part goes first so the instruction reads as referring to it.
func videoContents(ref *models.VideoReference, instruction string) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromURI(ref.CanonicalURL, videoMIMEType),
		genai.NewPartFromText(instruction),
	}
	return []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
}
