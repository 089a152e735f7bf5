package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageMetrics tracks metrics for a single stage
type StageMetrics struct {
	Stage       string
	Success     bool
	Duration    time.Duration
	RowsRead    int64
	RowsWritten int64
	Groups      int
	Defaulted   int
}

// RunMetrics tracks metrics for a run
type RunMetrics struct {
	mu               sync.Mutex
	logger           *zap.Logger
	StartTime        time.Time
	EndTime          time.Time
	Stages           []StageMetrics
	TotalRowsRead    int64
	TotalRowsWritten int64
	TotalDefaulted   map[string]int
	ErrorCounts      map[ErrorCategory]int
}

// NewRunMetrics creates a new metrics tracker
func NewRunMetrics(logger *zap.Logger) *RunMetrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunMetrics{
		logger:         logger,
		StartTime:      time.Now(),
		Stages:         make([]StageMetrics, 0),
		TotalDefaulted: make(map[string]int),
		ErrorCounts:    make(map[ErrorCategory]int),
	}
}

// RecordStage records the outcome of a stage
func (rm *RunMetrics) RecordStage(result StageResult) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.Stages = append(rm.Stages, StageMetrics{
		Stage:       result.Stage,
		Success:     result.Success,
		Duration:    result.Duration,
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
		Groups:      result.Groups,
		Defaulted:   result.DefaultedTotal(),
	})
	rm.TotalRowsRead += result.RowsRead
	rm.TotalRowsWritten += result.RowsWritten
	for column, n := range result.Defaulted {
		rm.TotalDefaulted[column] += n
	}

	rm.logger.Debug("Recorded stage metrics",
		zap.String("stage", result.Stage),
		zap.Bool("success", result.Success),
		zap.Int64("rows_read", result.RowsRead),
		zap.Int64("rows_written", result.RowsWritten),
		zap.Duration("duration", result.Duration))
}

// RecordError counts an error occurrence
func (rm *RunMetrics) RecordError(category ErrorCategory) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.ErrorCounts[category]++
}

// Complete marks the run as complete
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.EndTime = time.Now()
}

// Duration returns the run duration so far
func (rm *RunMetrics) Duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// CalculateThroughput returns rows written per second
func (rm *RunMetrics) CalculateThroughput() float64 {
	seconds := rm.Duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(rm.TotalRowsWritten) / seconds
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateMetricsReport renders a human readable summary
func (rm *RunMetrics) GenerateMetricsReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	report := fmt.Sprintf(`
Run Metrics Report
==================
Duration:                %s
Start Time:              %s

Data Summary
------------
Total Rows Read:         %d
Total Rows Written:      %d
Average Throughput:      %.2f rows/sec
`,
		formatDuration(rm.Duration()),
		rm.StartTime.Format(time.RFC3339),
		rm.TotalRowsRead,
		rm.TotalRowsWritten,
		rm.CalculateThroughput(),
	)

	report += "\nStage Details\n-------------\n"
	for _, stage := range rm.Stages {
		status := "ok"
		if !stage.Success {
			status = "failed"
		}
		report += fmt.Sprintf("- %s: %s, %s, %d rows read, %d rows written, %d groups\n",
			stage.Stage,
			status,
			formatDuration(stage.Duration),
			stage.RowsRead,
			stage.RowsWritten,
			stage.Groups)
	}

	if len(rm.TotalDefaulted) > 0 {
		report += "\nDefaulted Values\n----------------\n"
		for _, column := range sortedKeys(rm.TotalDefaulted) {
			report += fmt.Sprintf("- %s: %d\n", column, rm.TotalDefaulted[column])
		}
	}

	if len(rm.ErrorCounts) > 0 {
		report += "\nErrors\n------\n"
		for category, count := range rm.ErrorCounts {
			report += fmt.Sprintf("- %s: %d\n", category.String(), count)
		}
	}

	return report
}

// ToJSON serializes metrics to JSON
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	errorCounts := make(map[string]int, len(rm.ErrorCounts))
	for category, count := range rm.ErrorCounts {
		errorCounts[category.String()] = count
	}

	type stageJSON struct {
		Stage       string `json:"stage"`
		Success     bool   `json:"success"`
		Duration    string `json:"duration"`
		RowsRead    int64  `json:"rowsRead"`
		RowsWritten int64  `json:"rowsWritten"`
		Groups      int    `json:"groups"`
		Defaulted   int    `json:"defaulted"`
	}
	stages := make([]stageJSON, len(rm.Stages))
	for i, s := range rm.Stages {
		stages[i] = stageJSON{
			Stage:       s.Stage,
			Success:     s.Success,
			Duration:    formatDuration(s.Duration),
			RowsRead:    s.RowsRead,
			RowsWritten: s.RowsWritten,
			Groups:      s.Groups,
			Defaulted:   s.Defaulted,
		}
	}

	return json.Marshal(struct {
		Duration         string         `json:"duration"`
		TotalRowsRead    int64          `json:"totalRowsRead"`
		TotalRowsWritten int64          `json:"totalRowsWritten"`
		Throughput       float64        `json:"throughput"`
		Stages           []stageJSON    `json:"stages"`
		Defaulted        map[string]int `json:"defaulted"`
		Errors           map[string]int `json:"errors"`
	}{
		Duration:         formatDuration(rm.Duration()),
		TotalRowsRead:    rm.TotalRowsRead,
		TotalRowsWritten: rm.TotalRowsWritten,
		Throughput:       rm.CalculateThroughput(),
		Stages:           stages,
		Defaulted:        rm.TotalDefaulted,
		Errors:           errorCounts,
	})
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
