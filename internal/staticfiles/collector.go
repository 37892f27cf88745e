// Package staticfiles gathers the web application's static assets from the
// configured source directories into a single serving root, fingerprinting
// each file and writing a manifest so the frontend can reference immutable,
// cache-safe names.
package staticfiles

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// ManifestName is the manifest file written at the root of the static tree.
const ManifestName = "staticfiles.json"

// hashLen is the number of hex characters of the digest embedded in
// fingerprinted file names.
const hashLen = 12

// Entry maps an original asset path to its fingerprinted copy.
type Entry struct {
	Hashed string `json:"hashed"`
	Digest string `json:"digest"`
}

// Manifest is the serialized collection result.
type Manifest struct {
	Version     string           `json:"version"`
	GeneratedAt time.Time        `json:"generated_at"`
	Paths       map[string]Entry `json:"paths"`
}

// Stats summarises a collection run.
type Stats struct {
	Copied      int `json:"copied"`
	SourcesUsed int `json:"sources_used"`
}

// Collector copies assets from SourceDirs into Root. Later source dirs win on
// path collisions. Collection is re-runnable: files are overwritten in place.
type Collector struct {
	SourceDirs []string
	Root       string
}

// New returns a Collector for the given source directories and static root.
func New(sourceDirs []string, root string) *Collector {
	return &Collector{SourceDirs: sourceDirs, Root: root}
}

// Collect walks every source directory, copies each regular file into the
// root (both under its original relative path and a fingerprinted one), and
// writes the manifest. Any I/O error is fatal and aborts the run.
func (c *Collector) Collect(ctx context.Context) (Stats, error) {
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create static root %s: %w", c.Root, err)
	}

	manifest := Manifest{
		Version:     "1.0",
		GeneratedAt: time.Now().UTC(),
		Paths:       make(map[string]Entry),
	}
	var stats Stats

	for _, dir := range c.SourceDirs {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			// Apps without static assets simply don't have the directory.
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("stat source dir %s: %w", dir, err)
		}
		if !info.IsDir() {
			return stats, fmt.Errorf("static source %s is not a directory", dir)
		}

		copied, err := c.collectDir(ctx, dir, &manifest)
		if err != nil {
			return stats, err
		}
		stats.Copied += copied
		stats.SourcesUsed++
	}

	if err := c.writeManifest(manifest); err != nil {
		return stats, err
	}
	return stats, nil
}

func (c *Collector) collectDir(ctx context.Context, dir string, manifest *Manifest) (int, error) {
	copied := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}
		rel = filepath.ToSlash(rel)

		entry, err := c.copyAsset(p, rel)
		if err != nil {
			return err
		}
		manifest.Paths[rel] = entry
		copied++
		return nil
	})
	return copied, err
}

// copyAsset writes the file at src to the root under rel and under its
// fingerprinted name, returning the manifest entry.
func (c *Collector) copyAsset(src, rel string) (Entry, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return Entry{}, fmt.Errorf("read asset %s: %w", src, err)
	}

	digest := blake3.Sum256(data)
	hexDigest := hex.EncodeToString(digest[:])
	hashed := hashedName(rel, hexDigest[:hashLen])

	for _, target := range []string{rel, hashed} {
		dst := filepath.Join(c.Root, filepath.FromSlash(target))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return Entry{}, fmt.Errorf("create asset dir for %s: %w", dst, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return Entry{}, fmt.Errorf("write asset %s: %w", dst, err)
		}
	}

	return Entry{Hashed: hashed, Digest: hexDigest}, nil
}

func (c *Collector) writeManifest(manifest Manifest) error {
	f, err := os.Create(filepath.Join(c.Root, ManifestName))
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest from a static root. A missing manifest means
// collection has not run in this environment.
func ReadManifest(root string) (Manifest, error) {
	f, err := os.Open(filepath.Join(root, ManifestName))
	if err != nil {
		return Manifest{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var m Manifest
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// hashedName inserts the digest fragment before the extension:
// css/site.css → css/site.4a5b6c7d8e9f.css. Extensionless files get the
// fragment as a suffix.
func hashedName(rel, fragment string) string {
	dir, file := path.Split(rel)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	if ext == "" {
		return dir + base + "." + fragment
	}
	return dir + base + "." + fragment + ext
}
