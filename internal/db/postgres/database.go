package postgres

import (
	log "github.com/sirupsen/logrus"

	"github.com/lgrosjean/baynext-ml/internal/db"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

type Database struct {
	runs    db.RunService
	metrics db.RunMetricsService
}

var _ db.Database = &Database{}

func NewInstance(cfg *lsql.Config) *lsql.Instance {
	if cfg.DatabaseName == "" {
		panic("database name is empty")
	}
	log.Printf("Connecting to %s database %s", cfg.Engine, cfg.DatabaseName)
	instance, err := lsql.NewInstance(cfg)
	if err != nil {
		log.Printf("failed to create database instance: %s", err)
	}

	return instance
}

func NewDatabase(runs db.RunService, metrics db.RunMetricsService) db.Database {
	return &Database{
		runs:    runs,
		metrics: metrics,
	}
}

func (d *Database) Runs() db.RunService {
	return d.runs
}

func (d *Database) RunMetrics() db.RunMetricsService {
	return d.metrics
}
