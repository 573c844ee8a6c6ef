//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lgrosjean/baynext-ml/internal/artifacts"
	"github.com/lgrosjean/baynext-ml/internal/config"
	"github.com/lgrosjean/baynext-ml/internal/db/postgres"
	"github.com/lgrosjean/baynext-ml/internal/pipeline"
	"github.com/lgrosjean/baynext-ml/internal/tracking"
	"github.com/lgrosjean/baynext-ml/pkg/app"
	"github.com/lgrosjean/baynext-ml/pkg/clientbase"
	cbhttp "github.com/lgrosjean/baynext-ml/pkg/clientbase/http"
	lsql "github.com/lgrosjean/baynext-ml/pkg/sql"
)

// wire up the dependencies.
func InitializeDependencies() (*dependencies, error) {
	wire.Build(config.NewConfigFromEnv, NewPipelineConfig, app.NewInstance,
		cbhttp.NewConfigFromEnv, cbhttp.NewInstance, clientbase.NewConnections,
		lsql.NewConfigFromEnv, postgres.NewInstance, postgres.NewRuns,
		postgres.NewRunMetrics, postgres.NewDatabase, NewMigration,
		tracking.NewConfigFromEnv, NewTrackingClient,
		artifacts.NewConfigFromEnv, artifacts.NewStore,
		NewDispatchConfig, NewDatasetFs,
		pipeline.New,
		newDependencies)
	return &dependencies{}, nil
}
