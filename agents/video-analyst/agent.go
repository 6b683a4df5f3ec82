package videoanalyst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"video-analyst/internal/models"
	"video-analyst/shared/ai"
	"video-analyst/shared/config"
	"video-analyst/shared/scheduler"
	"video-analyst/shared/storage"
	"video-analyst/shared/youtube"
)

// AnalysisMetrics describes one scheduled run.
type AnalysisMetrics struct {
	VideoURL     string `json:"video_url"`
	OutputPath   string `json:"output_path"`
	ResponseSize int    `json:"response_size"`
}

// GetSummary implements the scheduler.Metrics interface
func (m AnalysisMetrics) GetSummary() string {
	return fmt.Sprintf("analyzed %s, wrote %d chars of sections to %s", m.VideoURL, m.ResponseSize, m.OutputPath)
}

// VideoAnalyst sends a video to Gemini and persists the section breakdown.
// It implements the scheduler.Agent interface for a single configured video.
type VideoAnalyst struct {
	config   *config.Config
	analyzer *ai.Analyzer
	writer   *storage.ResultWriter
	out      io.Writer
	videoURL string
}

func NewVideoAnalyst(cfg *config.Config) *VideoAnalyst {
	return &VideoAnalyst{
		config: cfg,
		out:    os.Stdout,
	}
}

func (v *VideoAnalyst) Name() string {
	return "Video Analyst"
}

// SetVideo sets the reference analyzed by scheduled runs.
func (v *VideoAnalyst) SetVideo(rawURL string) {
	v.videoURL = rawURL
}

// SetOutput redirects the printed result, os.Stdout by default.
func (v *VideoAnalyst) SetOutput(w io.Writer) {
	v.out = w
}

func (v *VideoAnalyst) Initialize() error {
	if v.analyzer == nil {
		analyzer, err := ai.NewAnalyzer(context.Background(), &v.config.AI)
		if err != nil {
			return err
		}
		v.analyzer = analyzer
		log.Printf("AI analyzer initialized (model %s)", analyzer.ModelName())
	}

	if v.writer == nil {
		writer, err := storage.NewResultWriter(v.config.Output.Path)
		if err != nil {
			return ai.NewError(ai.KindStorage, "initialize_storage", err)
		}
		v.writer = writer
	}

	return nil
}

// AnalyzeVideoWithChat requests a section breakdown for rawURL, prints the
// record, writes it to the output file and returns it. Failures never escape
// as panics or errors: they come back as an Outcome whose Record is
// {"error": <message>}, and the output file is left untouched.
func (v *VideoAnalyst) AnalyzeVideoWithChat(ctx context.Context, rawURL string) Outcome {
	result, err := v.analyze(ctx, rawURL)
	if err != nil {
		outcome := Outcome{Err: err}
		fmt.Fprintf(v.out, "Error analyzing video: %s\n", outcome.ErrorMessage())
		log.Printf("Analysis of %q failed: %v", rawURL, err)
		return outcome
	}
	return Outcome{Result: result}
}

func (v *VideoAnalyst) analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	ref, err := parseReference(rawURL)
	if err != nil {
		return nil, err
	}

	if err := v.Initialize(); err != nil {
		return nil, err
	}

	sectionBreakdown, err := v.analyzer.GenerateSectionBreakdown(ctx, ref)
	if err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		SectionBreakdown: sectionBreakdown,
		YouTubeURL:       ref.Raw,
		ModelName:        v.analyzer.ModelName(),
	}

	printed, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return nil, ai.NewError(ai.KindStorage, "print_result", err)
	}
	fmt.Fprintln(v.out, string(printed))

	if err := v.writer.Write(result); err != nil {
		return nil, ai.NewError(ai.KindStorage, "write_result", err)
	}
	log.Printf("Analysis written to %s", v.writer.Path())

	return result, nil
}

// Summarize returns a short thematic summary. Nothing is persisted.
func (v *VideoAnalyst) Summarize(ctx context.Context, rawURL string) (string, error) {
	ref, err := parseReference(rawURL)
	if err != nil {
		return "", err
	}
	if err := v.Initialize(); err != nil {
		return "", err
	}
	return v.analyzer.GenerateSummary(ctx, ref)
}

// Ask answers question about the video. Nothing is persisted.
func (v *VideoAnalyst) Ask(ctx context.Context, rawURL, question string) (string, error) {
	ref, err := parseReference(rawURL)
	if err != nil {
		return "", err
	}
	if _, err := ai.ValidateQuestion(question); err != nil {
		return "", err
	}
	if err := v.Initialize(); err != nil {
		return "", err
	}
	return v.analyzer.AnswerQuestion(ctx, ref, question)
}

// LastResult loads the record written by the most recent successful run.
func (v *VideoAnalyst) LastResult() (*models.AnalysisResult, error) {
	writer := v.writer
	if writer == nil {
		var err error
		writer, err = storage.NewResultWriter(v.config.Output.Path)
		if err != nil {
			return nil, err
		}
	}

	var result models.AnalysisResult
	if err := writer.Read(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (v *VideoAnalyst) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	outcome := v.AnalyzeVideoWithChat(ctx, v.videoURL)
	if !outcome.OK() {
		// The scheduler records the critical failure from the returned error.
		return outcome.Err
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(AnalysisMetrics{
			VideoURL:     outcome.Result.YouTubeURL,
			OutputPath:   v.config.Output.Path,
			ResponseSize: len(outcome.Result.SectionBreakdown),
		}, time.Since(startTime))
	}
	return nil
}

func parseReference(rawURL string) (*models.VideoReference, error) {
	ref, err := youtube.ParseVideoURL(rawURL)
	if err != nil {
		return nil, ai.NewError(ai.KindInvalidInput, "validate_url", err)
	}
	return ref, nil
}
