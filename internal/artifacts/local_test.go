package artifacts

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	lhttp "github.com/lgrosjean/baynext-ml/pkg/http"
)

func TestLocalStoreRoundtrip(t *testing.T) {
	store := NewLocalStoreFs(afero.NewMemMapFs())
	ctx := context.Background()

	prefix := RunPrefix("42", "run-1")
	assert.Equal(t, "experiments/42/runs/run-1/artifacts", prefix)

	err := store.Put(ctx, prefix+"/tables/summary.json", []byte(`{"roi":1.4}`))
	assert.NoError(t, err)
	err = store.Put(ctx, prefix+"/config.yaml", []byte("run_name: x"))
	assert.NoError(t, err)

	data, err := store.Get(ctx, prefix+"/tables/summary.json")
	assert.NoError(t, err)
	assert.Equal(t, `{"roi":1.4}`, string(data))

	keys, err := store.List(ctx, prefix)
	assert.NoError(t, err)
	assert.Equal(t, []string{
		prefix + "/config.yaml",
		prefix + "/tables/summary.json",
	}, keys)
}

func TestLocalStoreGetMissing(t *testing.T) {
	store := NewLocalStoreFs(afero.NewMemMapFs())

	_, err := store.Get(context.Background(), "experiments/42/runs/run-1/artifacts/model.json")
	herr, ok := err.(*lhttp.HttpError)
	assert.True(t, ok)
	assert.True(t, herr.NotFound())
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore(&Config{Backend: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestListEmptyPrefix(t *testing.T) {
	store := NewLocalStoreFs(afero.NewMemMapFs())
	keys, err := store.List(context.Background(), "experiments/absent")
	assert.NoError(t, err)
	assert.Empty(t, keys)
}
