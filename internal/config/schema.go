package config

import (
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const pipelineSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "run_name": {"type": "string"},
    "message": {"type": "string"},
    "experiment": {"type": "string"},
    "load": {
      "type": "object",
      "properties": {
        "source": {
          "type": "object",
          "properties": {
            "type": {"enum": ["csv"]},
            "name": {"type": "string"},
            "path": {"type": "string"}
          }
        },
        "kpi_type": {"enum": ["revenue", "non_revenue"]},
        "coord_to_columns": {
          "type": "object",
          "properties": {
            "time": {"type": "string"},
            "geo": {"type": "string"},
            "kpi": {"type": "string"},
            "population": {"type": "string"},
            "revenue_per_kpi": {"type": "string"},
            "controls": {"type": "array", "items": {"type": "string"}},
            "media": {"type": "array", "items": {"type": "string"}},
            "media_spend": {"type": "array", "items": {"type": "string"}}
          }
        },
        "media_to_channel": {"type": "object", "additionalProperties": {"type": "string"}},
        "media_spend_to_channel": {"type": "object", "additionalProperties": {"type": "string"}}
      }
    },
    "train": {
      "type": "object",
      "properties": {
        "spec": {
          "type": "object",
          "properties": {
            "prior": {
              "type": "object",
              "properties": {
                "roi_m": {
                  "type": "object",
                  "properties": {
                    "distribution": {"enum": ["normal", "log_normal", "half_normal", "uniform"]},
                    "mu": {"type": "number"},
                    "sigma": {"type": "number", "exclusiveMinimum": 0},
                    "low": {"type": "number"},
                    "high": {"type": "number"}
                  }
                }
              }
            },
            "media_effects_dist": {"enum": ["normal", "log_normal"]},
            "hill_before_adstock": {"type": "boolean"},
            "max_lag": {"type": "integer", "minimum": 1}
          }
        },
        "sample_prior": {
          "type": "object",
          "properties": {
            "n_draws": {"type": "integer", "minimum": 1},
            "seed": {"type": "integer"}
          }
        },
        "sample_posterior": {
          "type": "object",
          "properties": {
            "n_chains": {"type": "integer", "minimum": 1},
            "n_adapt": {"type": "integer", "minimum": 0},
            "n_burnin": {"type": "integer", "minimum": 0},
            "n_keep": {"type": "integer", "minimum": 1},
            "max_tree_depth": {"type": "integer", "minimum": 1},
            "seed": {"type": "integer"}
          }
        }
      }
    },
    "analyze": {
      "type": "object",
      "properties": {
        "curve_points": {"type": "integer", "minimum": 2},
        "quantiles": {"type": "array", "items": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1}}
      }
    },
    "log": {
      "type": "object",
      "properties": {
        "level": {"enum": ["debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "log_metrics": {"type": "boolean"},
        "log_dataset": {"type": "boolean"},
        "log_model": {"type": "boolean"}
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("baynext.schema.json", pipelineSchema)

func validateDocument(raw []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errors.WithStack(err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return errors.Wrap(err, "pipeline config failed schema validation")
	}
	return nil
}
