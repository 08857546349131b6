// internal/repo/bundle_test.go
package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"revflow/internal/change"
	"revflow/internal/model"
	shared "revflow/shared/types"
)

func writeBundle(t *testing.T, batches [][]shared.Event, contents map[string]string) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "bundle.json"),
		[]byte(`{"repo":"origin"}`), 0o644))

	data, err := json.Marshal(batches)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "events.json"), data, 0o644))

	for rel, content := range contents {
		path := filepath.Join(root, "contents", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestOpenReadsMetadata(t *testing.T) {
	root := writeBundle(t, nil, nil)

	b, err := Open(root)
	require.NoError(t, err)
	assert.Equal(t, "origin", b.ID())
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestEventsInheritRepo(t *testing.T) {
	root := writeBundle(t, [][]shared.Event{
		{{Kind: shared.EventAdd, Path: "a.go", Revision: model.NewRevision(1)}},
		{{Kind: shared.EventChange, Path: "a.go", Revision: model.NewRevision(2),
			Ancestors: []model.Revision{model.NewRevision(1)}}},
	}, nil)

	b, err := Open(root)
	require.NoError(t, err)

	batches, err := b.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "origin", batches[0][0].Repo)
	assert.Equal(t, "origin", batches[1][0].Repo)
}

func TestFileContents(t *testing.T) {
	root := writeBundle(t, nil, map[string]string{
		"r1/src/a.go": "package a\n",
	})

	b, err := Open(root)
	require.NoError(t, err)

	content, err := b.FileContents(context.Background(),
		model.NewRevisionedFile("src/a.go", model.NewRevision(1), "origin"))
	require.NoError(t, err)
	assert.Equal(t, "package a\n", string(content))

	_, err = b.FileContents(context.Background(),
		model.NewRevisionedFile("src/a.go", model.NewRevision(2), "origin"))
	assert.Error(t, err)

	_, err = b.FileContents(context.Background(),
		model.NewRevisionedFile("src/a.go", model.LocalRevision(), "origin"))
	assert.Error(t, err)
}

func TestReplayIntoManager(t *testing.T) {
	root := writeBundle(t, [][]shared.Event{
		{{Kind: shared.EventAdd, Path: "a.go", Revision: model.NewRevision(1)}},
		{{Kind: shared.EventChange, Path: "a.go", Revision: model.NewRevision(3),
			Ancestors: []model.Revision{model.NewRevision(1)}}},
	}, nil)

	b, err := Open(root)
	require.NoError(t, err)

	m := change.NewManager(zap.NewNop(), nil, nil)
	require.NoError(t, m.Replay(context.Background(), b))

	node := m.Graph().NodeFor(model.NewRevisionedFile("a.go", model.NewRevision(3), "origin"))
	require.NotNil(t, node)
	require.Len(t, node.Ancestors(), 1)
}
