package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	videoanalyst "video-analyst/agents/video-analyst"
	"video-analyst/shared/ai"
	"video-analyst/shared/config"
	"video-analyst/shared/scheduler"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var (
	configFile    string
	watchOnce     bool
	watchSchedule string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "video-analyst",
		Short: "Ask Gemini about YouTube videos",
		Long: `Sends a YouTube video to a Gemini model and asks for a timestamped section
breakdown, a short summary, or the answer to a question about the video.

The API key is read from GEMINI_API_KEY (a .env file is loaded if present).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				return os.Setenv("CONFIG_FILE", configFile)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: config.yaml, or CONFIG_FILE)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [youtube-url]",
		Short: "Create a section breakdown and save it to the output file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAnalyze,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary <youtube-url>",
		Short: "Print a 2-3 paragraph summary of the video",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummary,
	}

	askCmd := &cobra.Command{
		Use:   "ask <youtube-url> [question...]",
		Short: "Answer a question about the video, with timestamps",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	watchCmd := &cobra.Command{
		Use:   "watch <youtube-url>",
		Short: "Re-run the section breakdown on a cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Run a single analysis and exit")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron schedule with seconds field (overrides config)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the last saved analysis",
		Args:  cobra.NoArgs,
		RunE:  runShow,
	}

	rootCmd.AddCommand(analyzeCmd, summaryCmd, askCmd, watchCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newAnalyst() (*videoanalyst.VideoAnalyst, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return videoanalyst.NewVideoAnalyst(cfg), cfg, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	var videoURL string
	if len(args) == 1 {
		videoURL = args[0]
	}

	analyst, cfg, err := newAnalyst()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	// Hold the printed record until the spinner has cleared the line.
	var printed bytes.Buffer
	analyst.SetOutput(&printed)

	var outcome videoanalyst.Outcome
	withSpinner("Analyzing video sections...", func() {
		outcome = analyst.AnalyzeVideoWithChat(ctx, videoURL)
	})
	os.Stdout.Write(printed.Bytes())

	if !outcome.OK() {
		return fmt.Errorf("analysis failed (%s): %s", outcome.Kind(), outcome.ErrorMessage())
	}
	fmt.Fprintln(os.Stderr, infoStyle.Render("Saved to "+cfg.Output.Path))
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	analyst, _, err := newAnalyst()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	var summary string
	withSpinner("Summarizing video...", func() {
		summary, err = analyst.Summarize(ctx, args[0])
	})
	if err != nil {
		return describe(err)
	}

	fmt.Fprintln(os.Stderr, titleStyle.Render("Summary"))
	fmt.Println(summary)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args[1:], " ")
	if strings.TrimSpace(question) == "" {
		if !isTerminal() {
			return fmt.Errorf("a question is required")
		}
		if err := huh.NewInput().
			Title("What do you want to know about this video?").
			Value(&question).
			Validate(func(s string) error {
				_, err := ai.ValidateQuestion(s)
				return err
			}).
			Run(); err != nil {
			return err
		}
	}

	analyst, _, err := newAnalyst()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	var answer string
	withSpinner("Watching the video for an answer...", func() {
		answer, err = analyst.Ask(ctx, args[0], question)
	})
	if err != nil {
		return describe(err)
	}

	fmt.Fprintln(os.Stderr, titleStyle.Render("Answer"))
	fmt.Println(answer)
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	analyst, cfg, err := newAnalyst()
	if err != nil {
		return err
	}
	if watchSchedule != "" {
		if _, err := config.ParseSchedule(watchSchedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", watchSchedule, err)
		}
		cfg.Schedule = watchSchedule
	}
	analyst.SetVideo(args[0])

	ctx, cancel := signalContext(cmd)
	defer cancel()

	s := scheduler.New(cfg, analyst)

	if watchOnce {
		log.Println("Running once...")
		if err := analyst.Initialize(); err != nil {
			return describe(err)
		}
		return s.RunOnce(ctx)
	}

	log.Println("Starting scheduler...")
	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	analyst, cfg, err := newAnalyst()
	if err != nil {
		return err
	}

	result, err := analyst.LastResult()
	if err != nil {
		return fmt.Errorf("no saved analysis at %s: %w", cfg.Output.Path, err)
	}

	fmt.Fprintln(os.Stderr, titleStyle.Render(result.YouTubeURL)+" "+infoStyle.Render("("+result.ModelName+")"))
	fmt.Println(result.SectionBreakdown)
	return nil
}

// withSpinner shows a spinner on interactive terminals while fn blocks.
func withSpinner(title string, fn func()) {
	if !isTerminal() {
		fn()
		return
	}
	_ = spinner.New().
		Title(title).
		Action(fn).
		Run()
}

func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

func describe(err error) error {
	if kind := ai.KindOf(err); kind != "" {
		return fmt.Errorf("%s error: %w", kind, err)
	}
	return err
}
