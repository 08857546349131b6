// internal/repo/bundle.go

// Package repo provides change sources that feed the history graph.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"revflow/internal/model"
	shared "revflow/shared/types"
)

// Bundle is a directory snapshot of a repository's history: an
// events.json file with the ordered event batches and a contents/
// directory with one subdirectory per revision.
//
//	bundle/
//	  bundle.json          {"repo": "name"}, optional
//	  events.json          [][]Event, one inner array per changeset
//	  contents/r1/src/a.go
type Bundle struct {
	root string
	id   string
}

type bundleMeta struct {
	Repo string `json:"repo"`
}

// Open reads the bundle metadata. The repository name defaults to the
// bundle directory name when bundle.json is absent.
func Open(root string) (*Bundle, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening bundle: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening bundle: %s is not a directory", root)
	}

	b := &Bundle{root: root, id: filepath.Base(root)}
	data, err := os.ReadFile(filepath.Join(root, "bundle.json"))
	if err == nil {
		var meta bundleMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("parsing bundle.json: %w", err)
		}
		if meta.Repo != "" {
			b.id = meta.Repo
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	return b, nil
}

// ID returns the repository name the bundle's events belong to.
func (b *Bundle) ID() string { return b.id }

// Events returns the recorded event batches in order. Events missing a
// repo field inherit the bundle's repository name.
func (b *Bundle) Events(_ context.Context) ([][]shared.Event, error) {
	data, err := os.ReadFile(filepath.Join(b.root, "events.json"))
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	var batches [][]shared.Event
	if err := json.Unmarshal(data, &batches); err != nil {
		return nil, fmt.Errorf("parsing events: %w", err)
	}
	for _, batch := range batches {
		for i := range batch {
			if batch[i].Repo == "" {
				batch[i].Repo = b.id
			}
		}
	}
	return batches, nil
}

// FileContents serves file contents from the bundle's contents
// directory. Only committed revisions are available in a bundle.
func (b *Bundle) FileContents(_ context.Context, file model.RevisionedFile) ([]byte, error) {
	if file.Revision.IsLocal() || file.Revision.IsUnknown() {
		return nil, fmt.Errorf("bundle holds no content for %s", file)
	}
	path := filepath.Join(b.root, "contents", file.Revision.String(), filepath.FromSlash(file.Path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	return data, nil
}
