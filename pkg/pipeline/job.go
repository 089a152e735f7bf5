package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// RunJob represents one pipeline run
type RunJob struct {
	ID         string    // Unique run identifier
	RawTable   string    // Table the raw data is read from
	CleanTable string    // Table the clean data replaces
	CreatedAt  time.Time // Job creation timestamp
}

// NewRunJob creates a new run job
func NewRunJob(rawTable, cleanTable string) RunJob {
	return RunJob{
		ID:         uuid.New().String(),
		RawTable:   rawTable,
		CleanTable: cleanTable,
		CreatedAt:  time.Now(),
	}
}

// StageResult represents the outcome of one stage
type StageResult struct {
	Stage              string
	Success            bool
	RowsRead           int64
	RowsWritten        int64
	Groups             int
	CleaningOperations int
	Defaulted          map[string]int
	Warnings           []string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// NewStageResult initializes a stage result
func NewStageResult(stage string) *StageResult {
	return &StageResult{
		Stage:     stage,
		StartTime: time.Now(),
		Defaulted: make(map[string]int),
		Warnings:  make([]string, 0),
	}
}

// Complete marks the stage as complete and calculates duration
func (r *StageResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddWarning adds a warning to the result
func (r *StageResult) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// DefaultedTotal returns the number of cells coerced to a default value
func (r *StageResult) DefaultedTotal() int {
	total := 0
	for _, n := range r.Defaulted {
		total += n
	}
	return total
}

// RunResult represents the outcome of a whole run
type RunResult struct {
	JobID     string
	Stages    []StageResult
	Failure   *StageError
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// NewRunResult initializes a run result for a job
func NewRunResult(job RunJob) *RunResult {
	return &RunResult{
		JobID:     job.ID,
		Stages:    make([]StageResult, 0),
		StartTime: time.Now(),
	}
}

// AddStageResult records a finished stage
func (r *RunResult) AddStageResult(result StageResult) {
	r.Stages = append(r.Stages, result)
}

// Complete marks the run as complete and calculates duration
func (r *RunResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Success reports whether every stage ran and none failed
func (r *RunResult) Success() bool {
	return r.Failure == nil
}
