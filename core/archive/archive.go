// Package archive packages the engine's outputs into a single compressed
// bundle for download or hand-off, with a manifest of BLAKE3 digests so a
// consumer can verify what it received.
package archive

import (
	"archive/tar"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Entry is one file to include in a bundle.
type Entry struct {
	Name string
	Data []byte
}

// Manifest maps bundle entry names to their BLAKE3 digests.
type Manifest struct {
	Files map[string]string `json:"files"`
}

// JSON serializes the manifest.
func (m *Manifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// WriteBundle writes entries as an xz-compressed tar at path and returns
// the manifest. Entry contents are written verbatim; timestamps are zeroed
// so identical inputs produce identical bundles.
func WriteBundle(path string, entries []Entry) (*Manifest, error) {
	manifest := &Manifest{Files: make(map[string]string, len(entries))}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating bundle %s: %w", path, err)
	}
	defer f.Close()

	xzw, err := xz.NewWriter(f)
	if err != nil {
		return nil, fmt.Errorf("creating xz writer: %w", err)
	}
	tw := tar.NewWriter(xzw)

	for _, entry := range entries {
		hdr := &tar.Header{
			Name:    entry.Name,
			Mode:    0644,
			Size:    int64(len(entry.Data)),
			ModTime: time.Unix(0, 0),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("writing header for %s: %w", entry.Name, err)
		}
		if _, err := tw.Write(entry.Data); err != nil {
			return nil, fmt.Errorf("writing %s: %w", entry.Name, err)
		}
		sum := blake3.Sum256(entry.Data)
		manifest.Files[entry.Name] = hex.EncodeToString(sum[:])
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return nil, fmt.Errorf("closing xz stream: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing bundle: %w", err)
	}
	return manifest, nil
}
