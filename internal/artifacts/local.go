package artifacts

import (
	"context"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	lhttp "github.com/lgrosjean/baynext-ml/pkg/http"
)

// LocalStore keeps artifacts on the filesystem under a base path. Used for
// development and tests.
type LocalStore struct {
	fs afero.Fs
}

var _ Store = &LocalStore{}

func NewLocalStore(basePath string) *LocalStore {
	return &LocalStore{
		fs: afero.NewBasePathFs(afero.NewOsFs(), basePath),
	}
}

func NewLocalStoreFs(fs afero.Fs) *LocalStore {
	return &LocalStore{fs: fs}
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte) error {
	if err := s.fs.MkdirAll(path.Dir(key), 0755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, key, data, 0644)
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, lhttp.NewNotFound(key)
		}
		return nil, err
	}
	return data, nil
}

func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := afero.Walk(s.fs, prefix, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			keys = append(keys, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
