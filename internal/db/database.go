package db

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3" // Import go-sqlite3 library
)

const (
	RunStatusRunning  = "RUNNING"
	RunStatusFinished = "FINISHED"
	RunStatusFailed   = "FAILED"
)

// Run is one pipeline run in the local registry. RunId is the tracking
// server's run id.
type Run struct {
	Id           int64
	RunId        string
	ExperimentId string
	Name         string
	Status       string
	Message      string
	CreatedTs    time.Time
	UpdatedTs    time.Time
}

// RunMetric is one summary metric persisted for a run. Channel is empty for
// run-level metrics.
type RunMetric struct {
	Id        int64
	RunId     string
	Name      string
	Channel   string
	Value     float64
	CreatedTs time.Time
}

type RunService interface {
	CreateRun(ctx context.Context, run *Run) (*Run, error)
	GetRun(ctx context.Context, runId string) (*Run, error)
	ListRuns(ctx context.Context, experimentId string) ([]*Run, error)
	UpdateRunStatus(ctx context.Context, runId string, status string, message string) error
}

type RunMetricsService interface {
	CreateMetric(ctx context.Context, metric *RunMetric) (*RunMetric, error)
	ListMetrics(ctx context.Context, runId string) ([]*RunMetric, error)
}

type Database interface {
	Runs() RunService
	RunMetrics() RunMetricsService
}
