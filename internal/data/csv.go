package data

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/lgrosjean/baynext-ml/internal/config"
)

// NationalGeo is the synthetic geo used when the dataset has no geo column.
const NationalGeo = "national"

var ErrMissingColumn = fmt.Errorf("dataset is missing a mapped column")
var ErrNonNumericCell = fmt.Errorf("dataset cell is not numeric")
var ErrInconsistentTimes = fmt.Errorf("geos do not share the same time coordinates")
var ErrMissingRevenuePerKpi = fmt.Errorf("revenue_per_kpi column is required for non_revenue kpi")
var ErrEmptyDataset = fmt.Errorf("dataset has no rows")

// LoadCSV reads the configured CSV source and assembles InputData following
// the coord_to_columns mapping. Rows must be grouped so that every geo
// carries the same time sequence.
func LoadCSV(cfg *config.LoadConfig, filesystem afero.Fs) (*InputData, error) {
	raw, err := afero.ReadFile(filesystem, cfg.Source.Path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return parseCSV(cfg, raw)
}

func parseCSV(cfg *config.LoadConfig, raw []byte) (*InputData, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(records) < 2 {
		return nil, ErrEmptyDataset
	}

	header := records[0]
	rows := records[1:]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	coords := cfg.CoordToColumns
	national := coords.Geo == ""

	if coords.RevenuePerKpi == "" && cfg.KpiType == config.KpiTypeNonRevenue {
		return nil, ErrMissingRevenuePerKpi
	}

	required := []string{coords.Time, coords.Kpi}
	if !national {
		required = append(required, coords.Geo)
	}
	if coords.Population != "" {
		required = append(required, coords.Population)
	}
	if coords.RevenuePerKpi != "" {
		required = append(required, coords.RevenuePerKpi)
	}
	required = append(required, coords.Controls...)
	required = append(required, coords.Media...)
	required = append(required, coords.MediaSpend...)
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "column %s", name)
		}
	}

	cell := func(row int, column string) (float64, error) {
		value := rows[row][columns[column]]
		parsed, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return 0, errors.Wrapf(ErrNonNumericCell, "row %d column %s: %q", row+2, column, value)
		}
		return parsed, nil
	}

	// Group row indices by geo, preserving first-appearance order.
	geos := make([]string, 0)
	geoRows := make(map[string][]int)
	for i, row := range rows {
		geo := NationalGeo
		if !national {
			geo = row[columns[coords.Geo]]
		}
		if _, ok := geoRows[geo]; !ok {
			geos = append(geos, geo)
		}
		geoRows[geo] = append(geoRows[geo], i)
	}

	times := make([]string, 0, len(geoRows[geos[0]]))
	for _, rowIdx := range geoRows[geos[0]] {
		times = append(times, rows[rowIdx][columns[coords.Time]])
	}
	for _, geo := range geos {
		indices := geoRows[geo]
		if len(indices) != len(times) {
			return nil, errors.Wrapf(ErrInconsistentTimes, "geo %s has %d periods, expected %d", geo, len(indices), len(times))
		}
		for t, rowIdx := range indices {
			if rows[rowIdx][columns[coords.Time]] != times[t] {
				return nil, errors.Wrapf(ErrInconsistentTimes, "geo %s period %d", geo, t)
			}
		}
	}

	input := &InputData{
		Times:        times,
		Geos:         geos,
		Population:   make([]float64, len(geos)),
		KpiType:      cfg.KpiType,
		Kpi:          makeGrid(len(geos), len(times)),
		ControlNames: coords.Controls,
		Channels:     make([]string, 0, len(coords.Media)),
	}
	channelIndex := make(map[string]int, len(coords.Media))
	for _, col := range coords.Media {
		channelIndex[cfg.MediaToChannel[col]] = len(input.Channels)
		input.Channels = append(input.Channels, cfg.MediaToChannel[col])
	}
	if coords.RevenuePerKpi != "" {
		input.RevenuePerKpi = makeGrid(len(geos), len(times))
	}
	input.Controls = make([][][]float64, len(coords.Controls))
	for i := range input.Controls {
		input.Controls[i] = makeGrid(len(geos), len(times))
	}
	input.Media = make([][][]float64, len(coords.Media))
	input.Spend = make([][][]float64, len(coords.Media))
	for i := range coords.Media {
		input.Media[i] = makeGrid(len(geos), len(times))
		input.Spend[i] = makeGrid(len(geos), len(times))
	}

	for g, geo := range geos {
		input.Population[g] = 1
		if coords.Population != "" {
			population, err := cell(geoRows[geo][0], coords.Population)
			if err != nil {
				return nil, err
			}
			input.Population[g] = population
		}

		for t, rowIdx := range geoRows[geo] {
			if input.Kpi[g][t], err = cell(rowIdx, coords.Kpi); err != nil {
				return nil, err
			}
			if input.RevenuePerKpi != nil {
				if input.RevenuePerKpi[g][t], err = cell(rowIdx, coords.RevenuePerKpi); err != nil {
					return nil, err
				}
			}
			for c, col := range coords.Controls {
				if input.Controls[c][g][t], err = cell(rowIdx, col); err != nil {
					return nil, err
				}
			}
			for m, col := range coords.Media {
				if input.Media[m][g][t], err = cell(rowIdx, col); err != nil {
					return nil, err
				}
			}
			for _, col := range coords.MediaSpend {
				m := channelIndex[cfg.MediaSpendToChannel[col]]
				if input.Spend[m][g][t], err = cell(rowIdx, col); err != nil {
					return nil, err
				}
			}
		}
	}

	return input, nil
}

func makeGrid(nGeos, nTimes int) [][]float64 {
	grid := make([][]float64, nGeos)
	for i := range grid {
		grid[i] = make([]float64, nTimes)
	}
	return grid
}
