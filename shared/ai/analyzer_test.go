package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"video-analyst/internal/models"
	"video-analyst/shared/config"

	"google.golang.org/genai"
)

type stubGenerator struct {
	text  string
	resp  *genai.GenerateContentResponse
	err   error
	delay time.Duration

	calls      int
	lastModel  string
	lastConfig *genai.GenerateContentConfig
	lastParts  []*genai.Part
}

func (s *stubGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.calls++
	s.lastModel = model
	s.lastConfig = cfg
	if len(contents) > 0 {
		s.lastParts = contents[0].Parts
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return textResponse(s.text), nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}
}

var testRef = &models.VideoReference{
	Raw:          "https://youtu.be/dQw4w9WgXcQ",
	VideoID:      "dQw4w9WgXcQ",
	CanonicalURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
}

func TestNewAnalyzerRequiresAPIKey(t *testing.T) {
	_, err := NewAnalyzer(context.Background(), &config.AIConfig{Model: config.DefaultModel})
	if err == nil {
		t.Fatal("NewAnalyzer() expected error for missing API key")
	}
	if kind := KindOf(err); kind != KindCredential {
		t.Errorf("KindOf(err) = %q, want %q", kind, KindCredential)
	}
}

func TestNewAnalyzerBindsModel(t *testing.T) {
	a, err := NewAnalyzer(context.Background(), &config.AIConfig{
		GeminiAPIKey: "test-api-key",
		Model:        "models/gemini-2.0-flash",
	})
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if a.ModelName() != "models/gemini-2.0-flash" {
		t.Errorf("ModelName() = %q", a.ModelName())
	}
}

func TestAnalyzerCalls(t *testing.T) {
	tests := []struct {
		name       string
		call       func(a *Analyzer) (string, error)
		wantPrompt string
		wantJSON   bool
	}{
		{
			name:       "Summary",
			call:       func(a *Analyzer) (string, error) { return a.GenerateSummary(context.Background(), testRef) },
			wantPrompt: "2-3 paragraphs",
		},
		{
			name:       "Section breakdown",
			call:       func(a *Analyzer) (string, error) { return a.GenerateSectionBreakdown(context.Background(), testRef) },
			wantPrompt: "section breakdown",
			wantJSON:   true,
		},
		{
			name: "Question",
			call: func(a *Analyzer) (string, error) {
				return a.AnswerQuestion(context.Background(), testRef, "What is the chorus about?")
			},
			wantPrompt: "Question: What is the chorus about?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{text: "model output"}
			a := NewAnalyzerWithGenerator(gen, "models/test", 0)

			got, err := tt.call(a)
			if err != nil {
				t.Fatalf("call error = %v", err)
			}
			if got != "model output" {
				t.Errorf("result = %q, want model output", got)
			}
			if gen.calls != 1 {
				t.Errorf("GenerateContent called %d times, want 1", gen.calls)
			}
			if gen.lastModel != "models/test" {
				t.Errorf("model = %q, want models/test", gen.lastModel)
			}
			if len(gen.lastParts) != 2 {
				t.Fatalf("got %d parts, want video + instruction", len(gen.lastParts))
			}
			if fd := gen.lastParts[0].FileData; fd == nil || fd.FileURI != testRef.CanonicalURL {
				t.Errorf("first part FileData = %+v, want URI %s", fd, testRef.CanonicalURL)
			}
			if !strings.Contains(gen.lastParts[1].Text, tt.wantPrompt) {
				t.Errorf("instruction %q does not contain %q", gen.lastParts[1].Text, tt.wantPrompt)
			}
			gotJSON := gen.lastConfig != nil && gen.lastConfig.ResponseMIMEType == "application/json"
			if gotJSON != tt.wantJSON {
				t.Errorf("JSON response requested = %t, want %t", gotJSON, tt.wantJSON)
			}
		})
	}
}

func TestAnswerQuestionRejectsBlankQuestion(t *testing.T) {
	gen := &stubGenerator{text: "unused"}
	a := NewAnalyzerWithGenerator(gen, "models/test", 0)

	_, err := a.AnswerQuestion(context.Background(), testRef, "   ")
	if KindOf(err) != KindInvalidInput {
		t.Errorf("KindOf(err) = %q, want %q", KindOf(err), KindInvalidInput)
	}
	if gen.calls != 0 {
		t.Errorf("GenerateContent called %d times for invalid input, want 0", gen.calls)
	}
}

func TestDispatchErrors(t *testing.T) {
	tests := []struct {
		name     string
		gen      *stubGenerator
		timeout  time.Duration
		canceled bool
		wantKind Kind
		wantCode int
		wantMsg  string
	}{
		{
			name:     "Plain failure",
			gen:      &stubGenerator{err: errors.New("quota exceeded")},
			wantKind: KindNetwork,
			wantMsg:  "quota exceeded",
		},
		{
			name:     "Unauthorized",
			gen:      &stubGenerator{err: genai.APIError{Code: 403, Message: "permission denied", Status: "PERMISSION_DENIED"}},
			wantKind: KindCredential,
			wantCode: 403,
		},
		{
			name:     "Invalid API key",
			gen:      &stubGenerator{err: genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key.", Status: "INVALID_ARGUMENT"}},
			wantKind: KindCredential,
			wantCode: 400,
		},
		{
			name:     "Server error",
			gen:      &stubGenerator{err: genai.APIError{Code: 503, Message: "overloaded", Status: "UNAVAILABLE"}},
			wantKind: KindNetwork,
			wantCode: 503,
		},
		{
			name:     "Timeout",
			gen:      &stubGenerator{text: "late", delay: time.Second},
			timeout:  10 * time.Millisecond,
			wantKind: KindTimeout,
		},
		{
			name:     "Interrupted",
			gen:      &stubGenerator{text: "late", delay: time.Second},
			canceled: true,
			wantKind: KindCanceled,
		},
		{
			name:     "No candidates",
			gen:      &stubGenerator{resp: &genai.GenerateContentResponse{}},
			wantKind: KindMalformedResponse,
		},
		{
			name:     "Empty text",
			gen:      &stubGenerator{text: ""},
			wantKind: KindMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzerWithGenerator(tt.gen, "models/test", tt.timeout)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.canceled {
				cancel()
			}

			_, err := a.GenerateSectionBreakdown(ctx, testRef)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var aiErr *Error
			if !errors.As(err, &aiErr) {
				t.Fatalf("error %v is not *ai.Error", err)
			}
			if aiErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", aiErr.Kind, tt.wantKind)
			}
			if aiErr.Op != OpSectionBreakdown {
				t.Errorf("Op = %q, want %q", aiErr.Op, OpSectionBreakdown)
			}
			if aiErr.StatusCode != tt.wantCode {
				t.Errorf("StatusCode = %d, want %d", aiErr.StatusCode, tt.wantCode)
			}
			if tt.wantMsg != "" && aiErr.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", aiErr.Message(), tt.wantMsg)
			}
		})
	}
}
