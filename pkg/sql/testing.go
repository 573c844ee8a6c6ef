package lsql

import (
	"os"

	_ "modernc.org/sqlite"

	ltest "github.com/lgrosjean/baynext-ml/pkg/test"
)

// NewTestingConfig returns a config pointing at a throwaway sqlite file.
func NewTestingConfig(t ltest.T) (*Config, error) {
	file, err := os.CreateTemp("", "")
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() {
		_, err := file.Stat()
		if !os.IsNotExist(err) {
			os.RemoveAll(file.Name())
		}
	})
	return &Config{
		Engine:       "sqlite",
		DatabaseName: "test",
		Address:      file.Name(),
	}, nil
}
