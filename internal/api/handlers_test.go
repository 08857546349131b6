// internal/api/handlers_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"revflow/internal/change"
	"revflow/internal/diff"
	"revflow/internal/model"
	shared "revflow/shared/types"
)

type mapContents map[model.RevisionedFile][]byte

func (m mapContents) FileContents(_ context.Context, file model.RevisionedFile) ([]byte, error) {
	content, ok := m[file]
	if !ok {
		return nil, errors.New("no content")
	}
	return content, nil
}

func rev(n uint64) model.Revision { return model.NewRevision(n) }

func newTestServer(t *testing.T, contents mapContents) *httptest.Server {
	t.Helper()

	m := change.NewManager(zap.NewNop(), nil, nil)
	require.NoError(t, m.ApplyEvents([]shared.Event{
		{Kind: shared.EventAdd, Path: "src/a.go", Revision: rev(1), Repo: "repo"},
	}))
	require.NoError(t, m.ApplyEvents([]shared.Event{
		{Kind: shared.EventChange, Path: "src/a.go", Revision: rev(2), Repo: "repo",
			Ancestors: []model.Revision{rev(1)}},
	}))
	require.NoError(t, m.ApplyEvents([]shared.Event{
		{Kind: shared.EventChange, Path: "src/a.go", Revision: rev(5), Repo: "repo",
			Ancestors: []model.Revision{rev(2)}},
	}))

	handler := NewHistoryHandler(m, diff.NewEngine(nil), contents, "repo")
	mux := http.NewServeMux()
	handler.Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestGetNode(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"existing node", "/api/node/src/a.go?rev=r2", http.StatusOK},
		{"unknown revision", "/api/node/src/a.go?rev=r9", http.StatusNotFound},
		{"missing rev param", "/api/node/src/a.go", http.StatusBadRequest},
		{"malformed revision", "/api/node/src/a.go?rev=banana", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var node NodeResponse
			status := getJSON(t, srv, tt.url, &node)
			assert.Equal(t, tt.wantStatus, status)
			if status == http.StatusOK {
				assert.Equal(t, "src/a.go", node.Path)
				assert.Equal(t, "r2", node.Revision)
				assert.Equal(t, "normal", node.Type)
				require.Len(t, node.Ancestors, 1)
				assert.Equal(t, "r1", node.Ancestors[0].Revision)
			}
		})
	}
}

func TestGetFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	var flow []NodeResponse
	status := getJSON(t, srv, "/api/flow/src/a.go?rev=r5", &flow)
	require.Equal(t, http.StatusOK, status)

	require.Len(t, flow, 3)
	assert.Equal(t, "r1", flow[0].Revision)
	assert.Equal(t, "r2", flow[1].Revision)
	assert.Equal(t, "r5", flow[2].Revision)
}

func TestGetDiff(t *testing.T) {
	contents := mapContents{
		model.NewRevisionedFile("src/a.go", rev(1), "repo"): []byte("a\nb\nc\n"),
		model.NewRevisionedFile("src/a.go", rev(2), "repo"): []byte("a\nx\nc\n"),
	}
	srv := newTestServer(t, contents)

	var result DiffResponse
	status := getJSON(t, srv, "/api/diff/src/a.go?rev=r2&ancestor=r1", &result)
	require.Equal(t, http.StatusOK, status)

	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "b\n", result.Pairs[0].Old.Content)
	assert.Equal(t, "x\n", result.Pairs[0].New.Content)
	assert.Equal(t, "r1", result.Old.Revision)
	assert.Equal(t, "r2", result.New.Revision)

	// offsets resolved against "a\nb\nc\n": line 2 starts after 2 chars
	assert.Equal(t, 3, result.Pairs[0].Old.FromOffset)
	assert.Equal(t, 4, result.Pairs[0].Old.ToOffset)
	assert.Equal(t, 3, result.Pairs[0].New.FromOffset)
	assert.Equal(t, 4, result.Pairs[0].New.ToOffset)
}

func TestGetDiffContentUnavailable(t *testing.T) {
	srv := newTestServer(t, mapContents{})

	status := getJSON(t, srv, "/api/diff/src/a.go?rev=r2", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestGetDiffUnknownAncestor(t *testing.T) {
	srv := newTestServer(t, nil)

	status := getJSON(t, srv, "/api/diff/src/a.go?rev=r2&ancestor=r7", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListChangeSetsEmpty(t *testing.T) {
	srv := newTestServer(t, nil)

	var sets []change.ChangeSet
	status := getJSON(t, srv, "/api/changesets", &sets)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, sets)
}
