package postgres

import (
	"context"
	"time"

	"github.com/lgrosjean/baynext-ml/internal/db"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

type RunMetrics struct {
	db *lsql.Instance
}

var _ db.RunMetricsService = &RunMetrics{}

func NewRunMetrics(instance *lsql.Instance) db.RunMetricsService {
	return &RunMetrics{
		db: instance,
	}
}

func (r *RunMetrics) CreateMetric(ctx context.Context, m *db.RunMetric) (*db.RunMetric, error) {
	query := `
	INSERT INTO run_metrics (run_id, name, channel, value, created_ts)
	VALUES (?, ?, ?, ?, ?)
	RETURNING id
	`
	ts := time.Now()
	id, err := r.db.ExecAndReturnId(ctx, query, m.RunId, m.Name, m.Channel, m.Value, ts)
	if err != nil {
		return nil, err
	}
	return &db.RunMetric{
		Id:        id,
		RunId:     m.RunId,
		Name:      m.Name,
		Channel:   m.Channel,
		Value:     m.Value,
		CreatedTs: ts,
	}, nil
}

func (r *RunMetrics) ListMetrics(ctx context.Context, runId string) ([]*db.RunMetric, error) {
	query := `
	SELECT id, run_id, name, channel, value, created_ts
	FROM run_metrics
	WHERE run_id = ?
	ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, runId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metrics := make([]*db.RunMetric, 0)
	for rows.Next() {
		var m db.RunMetric
		if err := rows.Scan(&m.Id, &m.RunId, &m.Name, &m.Channel, &m.Value, &m.CreatedTs); err != nil {
			return nil, err
		}
		metrics = append(metrics, &m)
	}
	return metrics, rows.Err()
}
