package ltime

import (
	"time"

	"pgregory.net/rapid"
)

var times = []string{
	"2025-06-01T00:00:00Z",
	"2025-06-01T06:00:00Z",
	"2025-06-01T12:00:00Z",
	"2025-06-01T18:00:00Z",
}

var timeSampler *rapid.Generator[time.Time]

func init() {
	timeGenerators := make([]*rapid.Generator[time.Time], 0)
	for _, t := range times {
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			panic(err)
		}
		timeGenerators = append(timeGenerators, rapid.Just(parsed))
	}
	timeSampler = rapid.OneOf(timeGenerators...)
}

func TestingTimeGenerator() *rapid.Generator[time.Time] {
	return timeSampler
}
