// cmd/transform/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/cleaner"
	"github.com/David-Botos/data-transform/pkg/config"
	"github.com/David-Botos/data-transform/pkg/connector"
	"github.com/David-Botos/data-transform/pkg/converter"
	"github.com/David-Botos/data-transform/pkg/logging"
	"github.com/David-Botos/data-transform/pkg/pipeline"
	"github.com/David-Botos/data-transform/pkg/store"
	"github.com/David-Botos/data-transform/pkg/transform"
)

func main() {
	envFile := flag.String("env", "", "env file to load (default .env when present)")
	rawTable := flag.String("raw-table", "", "override RAW_TABLE")
	cleanTable := flag.String("clean-table", "", "override CLEAN_TABLE")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *rawTable != "" {
		cfg.RawTable = *rawTable
	}
	if *cleanTable != "" {
		cfg.CleanTable = *cleanTable
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	factory := connector.NewConnectorFactory(cfg, logger)
	source, sink, err := factory.CreateAllConnectors(ctx)
	if err != nil {
		stageErr := pipeline.NewConnectStageError(pipeline.TransformStageName, err)
		logger.Error("Pipeline failed",
			zap.String("stage", stageErr.Stage),
			zap.String("category", stageErr.Category.String()),
			zap.Error(err))
		return stageErr
	}
	defer func() {
		if sink != source {
			sink.Close()
		}
		source.Close()
	}()

	typeConverter := converter.NewTypeConverter(logger)
	sourceStore := store.NewTableStore(source.DB(), typeConverter, logger)
	sinkStore := store.NewTableStore(sink.DB(), typeConverter, logger).WithBatchSize(cfg.InsertBatchSize)

	stage := pipeline.NewTransformStage(sourceStore, sinkStore, transform.NewEngine(logger), logger)
	if cfg.AuditCoercions {
		auditor, err := cleaner.NewDataCleaner(ctx, sink.DB(), logger)
		if err != nil {
			logger.Error("Failed to set up coercion audit", zap.Error(err))
			return err
		}
		stage.WithAuditor(auditor)
	}

	runner := pipeline.NewRunner(logger, stage)
	job := pipeline.NewRunJob(cfg.RawTable, cfg.CleanTable)

	result, err := runner.Run(ctx, job)
	fmt.Print(runner.Metrics().GenerateMetricsReport())
	if metrics, jsonErr := runner.Metrics().ToJSON(); jsonErr == nil {
		logger.Debug("Run metrics", zap.ByteString("metrics", metrics))
	}
	if err != nil {
		if result.Failure != nil {
			logger.Error("Pipeline failed",
				zap.String("job_id", job.ID),
				zap.String("stage", result.Failure.Stage),
				zap.String("category", result.Failure.Category.String()))
		}
		return err
	}

	logger.Info("Pipeline finished",
		zap.String("job_id", job.ID),
		zap.Duration("duration", result.Duration))
	return nil
}
