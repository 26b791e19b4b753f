package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mediabatch/api"
	"mediabatch/config"
	"mediabatch/task"
)

var (
	taskFlag        string
	paramFlags      []string
	inputDirFlag    string
	outputDirFlag   string
	singleFileFlag  string
	concurrencyFlag int
)

var rootCmd = &cobra.Command{
	Use:   "mediabatch",
	Short: "Batch media conversion for local folders",
	Long: `mediabatch runs a conversion task over every matching file in a
directory: image resizing and format conversion, audio transcoding via
ffmpeg, and MIDI to MusicXML conversion.

Examples:
  mediabatch run --task image.resize --param target_w=800 -i ./photos -o ./out
  mediabatch run --task audio.convert --param output_format=mp3 -i ./music -o ./out
  mediabatch run --task midi.to_xml --file song.mid -o ./out
  mediabatch tasks
  mediabatch serve`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a conversion task over a directory or a single file",
	RunE:  runBatch,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the available tasks",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range task.Catalog() {
			fmt.Printf("%-16s %s\n", info.ID, info.Name)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the batch API over HTTP",
	RunE:  runServe,
}

func init() {
	runCmd.Flags().StringVarP(&taskFlag, "task", "t", "", "Task identifier (see 'mediabatch tasks')")
	runCmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "Task parameter as key=value (repeatable)")
	runCmd.Flags().StringVarP(&inputDirFlag, "input", "i", "", "Input directory to scan")
	runCmd.Flags().StringVarP(&outputDirFlag, "output", "o", "", "Output directory")
	runCmd.Flags().StringVarP(&singleFileFlag, "file", "f", "", "Process a single file instead of a directory")
	runCmd.Flags().IntVarP(&concurrencyFlag, "concurrency", "c", 0, "Worker count (default from configuration)")
	runCmd.MarkFlagRequired("task")
	runCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(runCmd, tasksCmd, serveCmd)
}

func setup() (*config.Config, *task.Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	return cfg, task.NewRunner(cfg, task.NewRegistry(cfg)), nil
}

// parseParams turns repeated key=value flags into the parameter bag the
// registry validates. Values stay strings; decoding is weakly typed.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed parameter %q, expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	_, runner, err := setup()
	if err != nil {
		return err
	}

	params, err := parseParams(paramFlags)
	if err != nil {
		return err
	}

	req := task.Request{
		TaskID:      taskFlag,
		Params:      params,
		InputDir:    inputDirFlag,
		OutputDir:   outputDirFlag,
		Concurrency: concurrencyFlag,
	}
	if singleFileFlag != "" {
		req.Mode = task.ModeSingle
		req.SingleFile = singleFileFlag
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var failures int
	reporter := &task.CallbackReporter{
		OnProgress: func(processed, total int) {
			if total > 0 {
				fmt.Printf("[%d/%d]\n", processed, total)
			}
		},
		OnLog: func(line string) {
			if strings.HasPrefix(line, "failed") {
				failures++
			}
			fmt.Println(line)
		},
		OnDone: func(outputDir string) {
			fmt.Printf("output: %s\n", outputDir)
		},
	}
	runner.Run(ctx, req, reporter)

	if failures > 0 {
		return fmt.Errorf("%d file(s) failed", failures)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, runner, err := setup()
	if err != nil {
		return err
	}

	router := api.SetupRouter(runner, api.NewSessionStore(), cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down gracefully, interrupt again to force")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server exiting")
	return nil
}
