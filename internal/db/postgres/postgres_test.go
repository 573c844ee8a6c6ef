package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lgrosjean/baynext-ml/internal/db"
	"github.com/lgrosjean/baynext-ml/internal/migrations"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

func newTestDatabase(t *testing.T) db.Database {
	t.Helper()
	cfg, err := lsql.NewTestingConfig(t)
	if err != nil {
		t.Fatalf("failed to create testing config: %v", err)
	}

	migration, err := lsql.NewMigration(cfg, migrations.Sets())
	if err != nil {
		t.Fatalf("failed to create migration: %v", err)
	}
	if err := migration.Run(nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if err := migration.DB.Close(); err != nil {
		t.Fatalf("failed to close migration connection: %v", err)
	}

	instance, err := lsql.NewInstance(cfg)
	if err != nil {
		t.Fatalf("failed to create db instance: %v", err)
	}
	t.Cleanup(func() { _ = instance.Close() })

	return NewDatabase(NewRuns(instance), NewRunMetrics(instance))
}

func TestCreateAndGetRun(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()

	created, err := database.Runs().CreateRun(ctx, &db.Run{
		RunId:        "run-1",
		ExperimentId: "42",
		Name:         "launch-q3",
		Status:       db.RunStatusRunning,
	})
	assert.NoError(t, err)
	assert.NotZero(t, created.Id)

	fetched, err := database.Runs().GetRun(ctx, "run-1")
	assert.NoError(t, err)
	assert.Equal(t, created.Id, fetched.Id)
	assert.Equal(t, "launch-q3", fetched.Name)
	assert.Equal(t, db.RunStatusRunning, fetched.Status)
}

func TestGetRunMissing(t *testing.T) {
	database := newTestDatabase(t)

	run, err := database.Runs().GetRun(context.Background(), "absent")
	assert.NoError(t, err)
	assert.Nil(t, run)
}

func TestListRunsByExperiment(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()

	for _, runId := range []string{"run-1", "run-2"} {
		_, err := database.Runs().CreateRun(ctx, &db.Run{
			RunId:        runId,
			ExperimentId: "42",
			Name:         runId,
			Status:       db.RunStatusRunning,
		})
		assert.NoError(t, err)
	}
	_, err := database.Runs().CreateRun(ctx, &db.Run{
		RunId:        "run-3",
		ExperimentId: "7",
		Name:         "other",
		Status:       db.RunStatusRunning,
	})
	assert.NoError(t, err)

	runs, err := database.Runs().ListRuns(ctx, "42")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(runs))
}

func TestUpdateRunStatus(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()

	_, err := database.Runs().CreateRun(ctx, &db.Run{
		RunId:        "run-1",
		ExperimentId: "42",
		Name:         "launch-q3",
		Status:       db.RunStatusRunning,
	})
	assert.NoError(t, err)

	err = database.Runs().UpdateRunStatus(ctx, "run-1", db.RunStatusFailed, "export failed")
	assert.NoError(t, err)

	run, err := database.Runs().GetRun(ctx, "run-1")
	assert.NoError(t, err)
	assert.Equal(t, db.RunStatusFailed, run.Status)
	assert.Equal(t, "export failed", run.Message)
}

func TestRunMetrics(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()

	_, err := database.Runs().CreateRun(ctx, &db.Run{
		RunId:        "run-1",
		ExperimentId: "42",
		Name:         "launch-q3",
		Status:       db.RunStatusRunning,
	})
	assert.NoError(t, err)

	_, err = database.RunMetrics().CreateMetric(ctx, &db.RunMetric{
		RunId:   "run-1",
		Name:    "roi_mean",
		Channel: "tv",
		Value:   1.4,
	})
	assert.NoError(t, err)
	_, err = database.RunMetrics().CreateMetric(ctx, &db.RunMetric{
		RunId: "run-1",
		Name:  "baseline_share",
		Value: 0.6,
	})
	assert.NoError(t, err)

	metrics, err := database.RunMetrics().ListMetrics(ctx, "run-1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(metrics))
	assert.Equal(t, "roi_mean", metrics[0].Name)
	assert.Equal(t, "tv", metrics[0].Channel)
	assert.InDelta(t, 1.4, metrics[0].Value, 1e-9)
	assert.Equal(t, "", metrics[1].Channel)
}
