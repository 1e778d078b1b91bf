package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rymo1354/best-practices-materials-workflows/internal/config"
	"github.com/rymo1354/best-practices-materials-workflows/internal/emitter"
	"github.com/rymo1354/best-practices-materials-workflows/internal/pipeline"
)

var (
	// Global flags
	verbose   bool
	outputDir string
	apiKey    string
	timeout   time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "runfilegen",
	Short: "Generate VASP run files for bulk and defect workflows",
	Long: `runfilegen prepares first-principles simulation inputs.

Given a YAML workflow document listing Materials Project IDs and/or local
POSCAR paths, it loads the crystal structures, assigns magnetic orderings
(ferromagnetic and randomized antiferromagnetic enumerations), optionally
builds supercells with point defects, and writes a directory tree of POSCAR
and INCAR files ready for submission.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// generateCmd runs one batch from a workflow document
var generateCmd = &cobra.Command{
	Use:   "generate [workflow.yaml]",
	Short: "Generate run directories from a workflow document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

// setsCmd lists the known relaxation set presets
var setsCmd = &cobra.Command{
	Use:   "sets",
	Short: "List the available relaxation set presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range emitter.RelaxationSetNames() {
			fmt.Println(name)
		}
	},
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Warn("interrupt received, cancelling batch")
		cancel()
	}()

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}

	incar, err := emitter.NewIncarBuilder(cfg.RelaxationSet, cfg.IncarTags)
	if err != nil {
		return err
	}

	builder, err := pipeline.NewBuilder(cfg, logger)
	if err != nil {
		return err
	}
	defer builder.Close()

	run, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	writer := emitter.NewWriter(outputDir, incar, cfg.MaxSubmissions, logger)
	summary, err := writer.WriteRun(run)
	if err != nil {
		return err
	}

	logger.Info("batch complete",
		zap.String("run_id", run.ID),
		zap.Int("written", summary.Written),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("capped", summary.Capped))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", ".", "root directory for generated run trees")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Materials Project API key (overrides config and MP_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "overall batch timeout")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(setsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
