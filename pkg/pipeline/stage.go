package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// Stage is one step of a run. Stages run strictly in order and a stage
// only starts after the previous one succeeded.
type Stage interface {
	Name() string
	Run(ctx context.Context, job RunJob) (*StageResult, error)
}

// Runner executes stages sequentially and stops at the first failure
type Runner struct {
	stages  []Stage
	logger  *zap.Logger
	metrics *RunMetrics
}

// NewRunner creates a runner for the given stages
func NewRunner(logger *zap.Logger, stages ...Stage) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("runner")
	return &Runner{
		stages:  stages,
		logger:  logger,
		metrics: NewRunMetrics(logger),
	}
}

// Metrics returns the metrics collected by the runner
func (r *Runner) Metrics() *RunMetrics {
	return r.metrics
}

// Run executes every stage for the job. On failure the returned error is
// a *StageError naming the failed stage, and the result holds it too.
func (r *Runner) Run(ctx context.Context, job RunJob) (*RunResult, error) {
	result := NewRunResult(job)
	defer func() {
		result.Complete()
		r.metrics.Complete()
	}()

	logger := r.logger.With(zap.String("job_id", job.ID))
	logger.Info("Starting run",
		zap.String("raw_table", job.RawTable),
		zap.String("clean_table", job.CleanTable),
		zap.Int("stages", len(r.stages)))

	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			return result, r.fail(logger, result, stage.Name(), err)
		}

		logger.Info("Starting stage", zap.String("stage", stage.Name()))
		stageResult, err := stage.Run(ctx, job)
		if stageResult != nil {
			result.AddStageResult(*stageResult)
			r.metrics.RecordStage(*stageResult)
		}
		if err != nil {
			return result, r.fail(logger, result, stage.Name(), err)
		}

		logger.Info("Finished stage", zap.String("stage", stage.Name()))
	}

	logger.Info("Run complete")
	return result, nil
}

func (r *Runner) fail(logger *zap.Logger, result *RunResult, stage string, err error) *StageError {
	stageErr := NewStageError(stage, err)
	result.Failure = stageErr
	r.metrics.RecordError(stageErr.Category)

	logger.Error("Stage failed",
		zap.String("stage", stage),
		zap.String("category", stageErr.Category.String()),
		zap.Error(err))
	return stageErr
}
