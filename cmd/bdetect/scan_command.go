package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bdetect/internal/audio"
	"bdetect/internal/config"
	"bdetect/internal/events"
	"bdetect/internal/fetch"
	"bdetect/internal/inference/onnx"
	"bdetect/internal/ledger"
	"bdetect/internal/logging"
	"bdetect/internal/pipeline"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		precision int
		threshold int
		batchSize int
		className string
		fartsOnly bool
		burpsOnly bool
		modelPath string
		cookies   string
		assumeYes bool
	)

	cmd := &cobra.Command{
		Use:   "scan [sources...]",
		Short: "Download sources and scan them for sound events",
		Long: `Scan downloads each source with yt-dlp, decodes it with ffmpeg and runs
the classifier over the audio. Sources can be media URLs, playlist or channel
URLs, local audio files, or text files with one URL per line. Results are
recorded in the ledger so rerunning a batch only handles what is new.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("precision") {
				cfg.Detector.Precision = precision
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Detector.Threshold = threshold
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Detector.BatchSize = batchSize
			}
			if modelPath != "" {
				cfg.Detector.ModelPath = modelPath
			}
			if cookies != "" {
				cfg.Fetch.CookiesFile = cookies
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			classes, err := selectClasses(className, fartsOnly, burpsOnly)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "bdetect.log")},
			})
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := ledger.Open(cfg.LedgerPath())
			if err != nil {
				return err
			}
			defer store.Close()

			expandedModel, err := config.ExpandPath(cfg.Detector.ModelPath)
			if err != nil {
				return err
			}
			classifier, err := onnx.Load(onnx.Options{
				ModelPath:   expandedModel,
				LibraryPath: cfg.Detector.LibraryPath,
			})
			if err != nil {
				return err
			}
			defer classifier.Close()

			p := pipeline.New(
				cfg,
				store,
				fetch.NewYTDLP(logger),
				audio.NewDecoder(cfg.FFmpegBinary(), logger),
				classifier,
				chooseProvider(assumeYes),
				classes,
				logger,
				cmd.OutOrStdout(),
			)

			result, err := p.Run(runCtx, args)
			if err != nil {
				return err
			}

			printRunSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&precision, "precision", 0, "Pooling window in model frames (100 frames is one second)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Minimum confidence percentage to report")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Samples per classifier pass")
	cmd.Flags().StringVar(&className, "class", "", "Restrict detection to one class (farts or burps)")
	cmd.Flags().BoolVarP(&fartsOnly, "farts-only", "F", false, "Detect farts only")
	cmd.Flags().BoolVarP(&burpsOnly, "burps-only", "B", false, "Detect burps only")
	cmd.Flags().StringVar(&modelPath, "model", "", "Path to the ONNX classifier model")
	cmd.Flags().StringVar(&cookies, "cookies", "", "Netscape cookies file passed to yt-dlp")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Answer prompts with their defaults")

	return cmd
}

func selectClasses(name string, fartsOnly, burpsOnly bool) ([]events.Class, error) {
	if fartsOnly && burpsOnly {
		return nil, fmt.Errorf("--farts-only and --burps-only are mutually exclusive")
	}
	if fartsOnly {
		return []events.Class{events.ClassFarts}, nil
	}
	if burpsOnly {
		return []events.Class{events.ClassBurps}, nil
	}
	switch name {
	case "":
		return events.DefaultClasses(), nil
	case events.ClassFarts.Name:
		return []events.Class{events.ClassFarts}, nil
	case events.ClassBurps.Name:
		return []events.Class{events.ClassBurps}, nil
	default:
		return nil, fmt.Errorf("unknown class %q (expected %s)", name, events.ClassNames(events.DefaultClasses()))
	}
}

func printRunSummary(cmd *cobra.Command, result *pipeline.Result) {
	rows := [][]string{
		{"References", strconv.Itoa(result.Total)},
		{"Processed", strconv.Itoa(result.Processed)},
		{"Downloaded", strconv.Itoa(result.Downloaded)},
		{"Reused", strconv.Itoa(result.Reused)},
		{"Skipped", strconv.Itoa(result.Skipped)},
		{"Failed", strconv.Itoa(result.Failed)},
		{"Detections", strconv.Itoa(result.Detections)},
		{"Elapsed", result.Elapsed.Round(time.Second).String()},
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderCounts("Run", rows))
	if result.RetryFile != "" {
		fmt.Fprintf(out, "Failed sources were written to %s; pass that file to scan to retry them.\n", result.RetryFile)
	}
}
