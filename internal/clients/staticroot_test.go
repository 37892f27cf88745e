package clients

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/staticfiles"
)

func TestStaticRootProbe_OKAfterCollection(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.css"), []byte("body{}"), 0o644))

	_, err := staticfiles.New([]string{src}, root).Collect(context.Background())
	require.NoError(t, err)

	result := NewStaticRootClient(root).Probe(context.Background())
	assert.True(t, result.OK)
	assert.Equal(t, staticProbeName, result.Name)
}

func TestStaticRootProbe_FailsWithoutManifest(t *testing.T) {
	t.Parallel()

	result := NewStaticRootClient(t.TempDir()).Probe(context.Background())
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "manifest")
}

func TestStaticRootProbe_FailsOnEmptyManifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	// A collection over zero source files still writes a manifest; the probe
	// treats an asset-less deployment as unhealthy.
	_, err := staticfiles.New(nil, root).Collect(context.Background())
	require.NoError(t, err)

	result := NewStaticRootClient(root).Probe(context.Background())
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "no assets")
}
