package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/store"
)

// Verifier checks a written table against the dataset that produced it
type Verifier struct {
	sink    *store.TableStore
	logger  *zap.Logger
	timeout time.Duration
}

// NewVerifier creates a new verifier
func NewVerifier(sink *store.TableStore, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		sink:    sink,
		logger:  logger.Named("verifier"),
		timeout: time.Minute * 5, // Default 5-minute timeout
	}
}

// VerifyRowCount checks that the table holds exactly the expected number of rows
func (v *Verifier) VerifyRowCount(ctx context.Context, table string, expected int64) (int64, error) {
	v.logger.Info("Verifying row count", zap.String("table", table))

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	actual, err := v.sink.CountRows(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	if actual != expected {
		v.logger.Warn("Row count mismatch",
			zap.String("table", table),
			zap.Int64("expected", expected),
			zap.Int64("actual", actual),
			zap.Int64("difference", expected-actual))
		return actual, fmt.Errorf("%w: table %s has %d rows, expected %d",
			ErrVerification, table, actual, expected)
	}

	v.logger.Info("Row count verification successful",
		zap.String("table", table),
		zap.Int64("count", actual))
	return actual, nil
}

// VerifyColumns checks that the table has exactly the expected columns, in order
func (v *Verifier) VerifyColumns(ctx context.Context, table string, expected []string) error {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	actual, err := v.sink.ColumnNames(ctx, table)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	if len(actual) != len(expected) {
		return fmt.Errorf("%w: table %s has %d columns, expected %d",
			ErrVerification, table, len(actual), len(expected))
	}
	for i := range expected {
		if actual[i] != expected[i] {
			return fmt.Errorf("%w: table %s column %d is %q, expected %q",
				ErrVerification, table, i+1, actual[i], expected[i])
		}
	}
	return nil
}
