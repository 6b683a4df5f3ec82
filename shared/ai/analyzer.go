package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"video-analyst/internal/models"
	"video-analyst/shared/config"

	"google.golang.org/genai"
)

// Generator is the slice of the genai Models service the analyzer uses.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analyzer is an authenticated handle bound to one Gemini model.
type Analyzer struct {
	generator Generator
	model     string
	timeout   time.Duration
}

func NewAnalyzer(ctx context.Context, cfg *config.AIConfig) (*Analyzer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, NewError(KindCredential, "initialize_client",
			errors.New("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)"))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, NewError(KindCredential, "initialize_client", fmt.Errorf("failed to create Gemini client: %w", err))
	}

	return NewAnalyzerWithGenerator(client.Models, cfg.Model, cfg.RequestTimeout), nil
}

// NewAnalyzerWithGenerator builds an Analyzer over any Generator.
// A zero timeout leaves requests bounded only by the caller's context.
func NewAnalyzerWithGenerator(gen Generator, model string, timeout time.Duration) *Analyzer {
	return &Analyzer{
		generator: gen,
		model:     model,
		timeout:   timeout,
	}
}

func (a *Analyzer) ModelName() string {
	return a.model
}

// GenerateSummary returns a 2-3 paragraph summary of the video.
func (a *Analyzer) GenerateSummary(ctx context.Context, ref *models.VideoReference) (string, error) {
	return a.dispatch(ctx, BuildSummaryRequest(ref))
}

// GenerateSectionBreakdown returns the model's JSON-shaped section list as raw text.
func (a *Analyzer) GenerateSectionBreakdown(ctx context.Context, ref *models.VideoReference) (string, error) {
	return a.dispatch(ctx, BuildSectionBreakdownRequest(ref))
}

// AnswerQuestion answers a free-form question about the video.
func (a *Analyzer) AnswerQuestion(ctx context.Context, ref *models.VideoReference, question string) (string, error) {
	req, err := BuildQuestionRequest(ref, question)
	if err != nil {
		return "", err
	}
	return a.dispatch(ctx, req)
}

func (a *Analyzer) dispatch(ctx context.Context, req *Request) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	log.Printf("Sending %s request to %s", req.Op, a.model)

	result, err := a.generator.GenerateContent(ctx, a.model, req.Contents, req.Config)
	if err != nil {
		classified := classifyCallError(req.Op, err)
		log.Printf("%s failed after %v (%s)", req.Op, time.Since(start).Round(time.Millisecond), classified.Kind)
		return "", classified
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", NewError(KindMalformedResponse, req.Op, errors.New("model returned no candidates"))
	}

	responseText := result.Text()
	if responseText == "" {
		reason := result.Candidates[0].FinishReason
		return "", NewError(KindMalformedResponse, req.Op,
			fmt.Errorf("empty response from model (finish reason %q). This could indicate content filtering or an inaccessible video", reason))
	}

	log.Printf("%s completed in %v (%d chars)", req.Op, time.Since(start).Round(time.Millisecond), len(responseText))
	return responseText, nil
}
