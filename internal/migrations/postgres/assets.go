package postgres

import (
	"fmt"
	"sort"
)

var _1InitUpSql = []byte(`
CREATE TABLE runs (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL UNIQUE,
    experiment_id TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    created_ts TIMESTAMP NOT NULL,
    updated_ts TIMESTAMP NOT NULL
);

CREATE INDEX runs_experiment_idx ON runs (experiment_id);

CREATE TABLE run_metrics (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL REFERENCES runs (run_id),
    name TEXT NOT NULL,
    channel TEXT NOT NULL DEFAULT '',
    value DOUBLE PRECISION NOT NULL,
    created_ts TIMESTAMP NOT NULL
);

CREATE INDEX run_metrics_run_idx ON run_metrics (run_id);
`)

var _1InitDownSql = []byte(`
DROP TABLE run_metrics;
DROP TABLE runs;
`)

var _bindata = map[string][]byte{
	"1_init.up.sql":   _1InitUpSql,
	"1_init.down.sql": _1InitDownSql,
}

func AssetNames() []string {
	names := make([]string, 0, len(_bindata))
	for name := range _bindata {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Asset(name string) ([]byte, error) {
	if data, ok := _bindata[name]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("asset %s not found", name)
}
