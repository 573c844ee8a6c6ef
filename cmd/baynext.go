package main

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/lgrosjean/baynext-ml/internal/config"
	"github.com/lgrosjean/baynext-ml/internal/db"
	"github.com/lgrosjean/baynext-ml/internal/migrations"
	"github.com/lgrosjean/baynext-ml/internal/pipeline"
	"github.com/lgrosjean/baynext-ml/internal/tracking"
	"github.com/lgrosjean/baynext-ml/pkg/app"
	"github.com/lgrosjean/baynext-ml/pkg/clientbase"
	"github.com/lgrosjean/baynext-ml/pkg/dispatch"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

type dependencies struct {
	cfg         *config.Config
	pipelineCfg *config.PipelineConfig
	app         *app.Instance
	pipeline    *pipeline.Pipeline
	database    db.Database
	migration   *lsql.Migration
	connections *clientbase.Connections
}

func newDependencies(cfg *config.Config, pipelineCfg *config.PipelineConfig, appInstance *app.Instance,
	p *pipeline.Pipeline, database db.Database, migration *lsql.Migration,
	connections *clientbase.Connections) *dependencies {
	return &dependencies{
		cfg:         cfg,
		pipelineCfg: pipelineCfg,
		app:         appInstance,
		pipeline:    p,
		database:    database,
		migration:   migration,
		connections: connections,
	}
}

func NewPipelineConfig(cfg *config.Config) (*config.PipelineConfig, error) {
	return config.LoadPipelineConfig(cfg.PipelineFile, afero.NewOsFs())
}

func NewMigration(appCfg *config.Config, cfg *lsql.Config) (*lsql.Migration, error) {
	if appCfg.Migrate {
		return lsql.NewMigration(cfg, migrations.Sets())
	}
	return nil, nil
}

func NewTrackingClient(cfg *tracking.Config, connections *clientbase.Connections) tracking.Client {
	return tracking.NewMLFlow(cfg, connections)
}

func NewDispatchConfig() (*dispatch.Config, error) {
	return dispatch.NewConfig(5*time.Second, 2, 4)
}

func NewDatasetFs() afero.Fs {
	return afero.NewOsFs()
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	deps, err := InitializeDependencies()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	if err := pipeline.ConfigureLogging(deps.pipelineCfg.Log); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	if deps.cfg.Migrate {
		if err := deps.migration.Run(deps.cfg.MigrationVersion); err != nil {
			panic(err)
		}
	}

	deps.app.AddCloser(deps.connections)

	result, err := deps.pipeline.Run(deps.app.Context())
	if err != nil {
		log.Errorf("pipeline failed: %s", err)
		deps.app.Stop(true)
	} else {
		log.Printf("run %s finished in experiment %s", result.RunName, result.ExperimentId)
		deps.app.Stop(false)
	}

	deps.app.WaitForFinish()
}
