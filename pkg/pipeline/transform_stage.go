package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/cleaner"
	"github.com/David-Botos/data-transform/pkg/store"
	"github.com/David-Botos/data-transform/pkg/transform"
)

// TransformStageName names the transform stage in results and errors
const TransformStageName = "transform"

// TransformStage reads the raw table, derives the clean dataset and
// replaces the clean table with it
type TransformStage struct {
	source   *store.TableStore
	sink     *store.TableStore
	engine   *transform.Engine
	verifier *Verifier
	auditor  *cleaner.DataCleaner
	logger   *zap.Logger
}

// NewTransformStage creates the transform stage
func NewTransformStage(source, sink *store.TableStore, engine *transform.Engine, logger *zap.Logger) *TransformStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransformStage{
		source:   source,
		sink:     sink,
		engine:   engine,
		verifier: NewVerifier(sink, logger),
		logger:   logger.Named("transform-stage"),
	}
}

// WithAuditor records every defaulted cell through the given cleaner
func (s *TransformStage) WithAuditor(auditor *cleaner.DataCleaner) *TransformStage {
	s.auditor = auditor
	return s
}

// Name returns the stage name
func (s *TransformStage) Name() string {
	return TransformStageName
}

// Run executes the stage. Nothing is written unless the whole dataset was
// computed, and a failed write leaves the previous clean table in place.
func (s *TransformStage) Run(ctx context.Context, job RunJob) (*StageResult, error) {
	result := NewStageResult(s.Name())

	raw, err := s.source.ReadTable(ctx, job.RawTable)
	if err != nil {
		result.Complete(false)
		return result, err
	}
	result.RowsRead = int64(raw.Len())

	clean, report, err := s.engine.Transform(job.RawTable, raw)
	if err != nil {
		result.Complete(false)
		return result, fmt.Errorf("failed to transform %s: %w", job.RawTable, err)
	}
	result.Groups = report.Groups
	result.CleaningOperations = len(report.Operations)
	for column, n := range report.Defaulted {
		result.Defaulted[column] = n
	}

	output := clean.Table()
	written, err := s.sink.ReplaceTable(ctx, job.CleanTable, output)
	if err != nil {
		result.Complete(false)
		return result, err
	}
	result.RowsWritten = written

	if _, err := s.verifier.VerifyRowCount(ctx, job.CleanTable, int64(clean.Len())); err != nil {
		result.Complete(false)
		return result, err
	}
	if err := s.verifier.VerifyColumns(ctx, job.CleanTable, output.Columns); err != nil {
		result.Complete(false)
		return result, err
	}

	// The clean table is already committed; a failed audit is only reported
	if s.auditor != nil {
		if err := s.auditor.RecordCleaningOperations(ctx, report.Operations); err != nil {
			s.logger.Warn("Failed to record cleaning operations", zap.Error(err))
			result.AddWarning(fmt.Sprintf("audit: %v", err))
		}
	}

	s.logger.Info("Transform stage complete",
		zap.String("job_id", job.ID),
		zap.Int64("rows_read", result.RowsRead),
		zap.Int64("rows_written", result.RowsWritten),
		zap.Int("groups", result.Groups),
		zap.Int("defaulted", result.DefaultedTotal()))

	result.Complete(true)
	return result, nil
}
