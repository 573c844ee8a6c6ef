package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lgrosjean/baynext-ml/internal/db"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

type Runs struct {
	db *lsql.Instance
}

var _ db.RunService = &Runs{}

func NewRuns(instance *lsql.Instance) db.RunService {
	return &Runs{
		db: instance,
	}
}

func (r *Runs) CreateRun(ctx context.Context, run *db.Run) (*db.Run, error) {
	query := `
	INSERT INTO runs (run_id, experiment_id, name, status, message, created_ts, updated_ts)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id
	`
	now := time.Now()
	id, err := r.db.ExecAndReturnId(ctx, query, run.RunId, run.ExperimentId, run.Name, run.Status, run.Message, now, now)
	if err != nil {
		return nil, err
	}
	return &db.Run{
		Id:           id,
		RunId:        run.RunId,
		ExperimentId: run.ExperimentId,
		Name:         run.Name,
		Status:       run.Status,
		Message:      run.Message,
		CreatedTs:    now,
		UpdatedTs:    now,
	}, nil
}

func (r *Runs) GetRun(ctx context.Context, runId string) (*db.Run, error) {
	query := `
	SELECT id, run_id, experiment_id, name, status, message, created_ts, updated_ts
	FROM runs
	WHERE run_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, runId)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *Runs) ListRuns(ctx context.Context, experimentId string) ([]*db.Run, error) {
	query := `
	SELECT id, run_id, experiment_id, name, status, message, created_ts, updated_ts
	FROM runs
	WHERE experiment_id = ?
	ORDER BY created_ts
	`
	rows, err := r.db.QueryContext(ctx, query, experimentId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*db.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *Runs) UpdateRunStatus(ctx context.Context, runId string, status string, message string) error {
	query := `
	UPDATE runs
	SET status = ?, message = ?, updated_ts = ?
	WHERE run_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, status, message, time.Now(), runId)
	return err
}

func scanRun(scanner lsql.RowScanner) (*db.Run, error) {
	var run db.Run
	err := scanner.Scan(&run.Id, &run.RunId, &run.ExperimentId, &run.Name, &run.Status, &run.Message, &run.CreatedTs, &run.UpdatedTs)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
