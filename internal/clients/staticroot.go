package clients

import (
	"context"
	"fmt"
	"time"

	"github.com/AbdouGaiming/roadmapai-deploy/internal/bootstrap"
	"github.com/AbdouGaiming/roadmapai-deploy/internal/staticfiles"
)

const staticProbeName = "staticfiles"

// StaticRootClient probes the collected static asset tree: the root must hold
// a readable manifest, which only exists after a successful collection.
type StaticRootClient struct {
	root string
}

// NewStaticRootClient creates a probe for the given static root.
func NewStaticRootClient(root string) *StaticRootClient {
	return &StaticRootClient{root: root}
}

// Probe reads the manifest and reports how many assets it tracks.
func (c *StaticRootClient) Probe(_ context.Context) bootstrap.ProbeResult {
	start := time.Now()

	manifest, err := staticfiles.ReadManifest(c.root)

	result := bootstrap.ProbeResult{
		Name:      staticProbeName,
		OK:        err == nil,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = fmt.Sprintf("static root %s: %v", c.root, err)
	} else if len(manifest.Paths) == 0 {
		result.OK = false
		result.Error = fmt.Sprintf("static root %s: manifest tracks no assets", c.root)
	}
	return result
}
