// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"revflow/internal/change"
	"revflow/internal/diff"
	"revflow/internal/errors"
	"revflow/internal/history"
	"revflow/internal/model"
	"revflow/internal/validation"
)

// HistoryHandler serves read-only queries against the published history
// graph: node lookup, flow listing and on-demand edge diffs.
type HistoryHandler struct {
	manager  *change.Manager
	engine   *diff.Engine
	contents history.ContentSource
	repo     string // default repository for requests without repo param
}

func NewHistoryHandler(manager *change.Manager, engine *diff.Engine, contents history.ContentSource, repo string) *HistoryHandler {
	return &HistoryHandler{
		manager:  manager,
		engine:   engine,
		contents: contents,
		repo:     repo,
	}
}

// Register mounts the handler's routes.
func (h *HistoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/node/{path...}", h.GetNode)
	mux.HandleFunc("GET /api/flow/{path...}", h.GetFlow)
	mux.HandleFunc("GET /api/diff/{path...}", h.GetDiff)
	mux.HandleFunc("GET /api/changesets", h.ListChangeSets)
}

type EdgeSummary struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	Revision string `json:"revision"`
}

type NodeResponse struct {
	Path        string        `json:"path"`
	Revision    string        `json:"revision"`
	Repo        string        `json:"repo"`
	Type        string        `json:"type"`
	Ancestors   []EdgeSummary `json:"ancestors,omitempty"`
	Descendants []EdgeSummary `json:"descendants,omitempty"`
	Children    []string      `json:"children,omitempty"`
}

func nodeToResponse(node *history.Node) NodeResponse {
	file := node.File()
	resp := NodeResponse{
		Path:     file.Path,
		Revision: file.Revision.String(),
		Repo:     file.Repo,
		Type:     node.Type().String(),
	}
	for _, e := range node.Ancestors() {
		f := e.Ancestor().File()
		resp.Ancestors = append(resp.Ancestors, EdgeSummary{e.Type().String(), f.Path, f.Revision.String()})
	}
	for _, e := range node.Descendants() {
		f := e.Descendant().File()
		resp.Descendants = append(resp.Descendants, EdgeSummary{e.Type().String(), f.Path, f.Revision.String()})
	}
	for _, child := range node.Children() {
		resp.Children = append(resp.Children, child.File().Path)
	}
	return resp
}

// lookup resolves the path/rev/repo request parameters to a graph node.
func (h *HistoryHandler) lookup(r *http.Request) (*history.Node, error) {
	path := r.PathValue("path")
	if err := validation.ValidatePath(path); err != nil {
		return nil, err
	}

	revParam := r.URL.Query().Get("rev")
	if revParam == "" {
		return nil, errors.ValidationError("rev parameter is required", nil)
	}
	rev, err := validation.ParseRevision(revParam)
	if err != nil {
		return nil, err
	}

	repo := r.URL.Query().Get("repo")
	if repo == "" {
		repo = h.repo
	}

	node := h.manager.Graph().NodeFor(model.NewRevisionedFile(path, rev, repo))
	if node == nil {
		return nil, errors.NotFound("no history for " + path + "@" + rev.String())
	}
	return node, nil
}

func (h *HistoryHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nodeToResponse(node))
}

// GetFlow returns the chain of revisions leading to the requested node,
// oldest first. At branch points the first recorded ancestor wins.
func (h *HistoryHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	node, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var flow []NodeResponse
	seen := make(map[*history.Node]bool)
	for current := node; current != nil && !seen[current]; {
		seen[current] = true
		flow = append(flow, nodeToResponse(current))
		ancestors := current.Ancestors()
		if len(ancestors) == 0 {
			break
		}
		current = ancestors[0].Ancestor()
	}

	// reverse to oldest-first
	for i, j := 0, len(flow)-1; i < j; i, j = i+1, j-1 {
		flow[i], flow[j] = flow[j], flow[i]
	}
	writeJSON(w, http.StatusOK, flow)
}

// DiffFragment is a fragment annotated with character offsets from file
// start, for consumers that address content by offset rather than by
// line and column.
type DiffFragment struct {
	model.Fragment
	FromOffset int `json:"from_offset"`
	ToOffset   int `json:"to_offset"`
}

type DiffPair struct {
	Old DiffFragment `json:"old"`
	New DiffFragment `json:"new"`
}

type DiffResponse struct {
	Old   EdgeSummary `json:"old"`
	New   EdgeSummary `json:"new"`
	Pairs []DiffPair  `json:"pairs"`
}

// GetDiff computes the diff along the edge from the given ancestor
// revision to the requested node. Without an ancestor parameter the
// first recorded ancestor is used.
func (h *HistoryHandler) GetDiff(w http.ResponseWriter, r *http.Request) {
	node, err := h.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}

	edge, err := h.pickAncestorEdge(r, node)
	if err != nil {
		writeError(w, err)
		return
	}

	pairs, err := edge.Diff(r.Context(), h.engine, h.contents)
	if err != nil {
		writeError(w, errors.Internal(err.Error()))
		return
	}

	oldFile := edge.Ancestor().File()
	newFile := edge.Descendant().File()
	resp := DiffResponse{
		Old:   EdgeSummary{edge.Type().String(), oldFile.Path, oldFile.Revision.String()},
		New:   EdgeSummary{edge.Type().String(), newFile.Path, newFile.Revision.String()},
		Pairs: []DiffPair{},
	}
	if len(pairs) > 0 {
		resp.Pairs, err = h.annotateOffsets(r.Context(), oldFile, newFile, pairs)
		if err != nil {
			writeError(w, errors.Internal(err.Error()))
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// annotateOffsets resolves fragment positions into character offsets
// against the contents the diff was computed from. The contents are
// served from the store's cache after the diff fetched them.
func (h *HistoryHandler) annotateOffsets(ctx context.Context, oldFile, newFile model.RevisionedFile, pairs []model.FragmentPair) ([]DiffPair, error) {
	oldContent, err := h.contents.FileContents(ctx, oldFile)
	if err != nil {
		return nil, err
	}
	newContent, err := h.contents.FileContents(ctx, newFile)
	if err != nil {
		return nil, err
	}
	oldTable := model.NewPositionLookupTable(oldContent)
	newTable := model.NewPositionLookupTable(newContent)

	annotated := make([]DiffPair, 0, len(pairs))
	for _, p := range pairs {
		annotated = append(annotated, DiffPair{
			Old: DiffFragment{
				Fragment:   p.Old,
				FromOffset: oldTable.CharsSinceFileStart(p.Old.From),
				ToOffset:   oldTable.CharsSinceFileStart(p.Old.To),
			},
			New: DiffFragment{
				Fragment:   p.New,
				FromOffset: newTable.CharsSinceFileStart(p.New.From),
				ToOffset:   newTable.CharsSinceFileStart(p.New.To),
			},
		})
	}
	return annotated, nil
}

func (h *HistoryHandler) pickAncestorEdge(r *http.Request, node *history.Node) (*history.Edge, error) {
	ancestors := node.Ancestors()
	if len(ancestors) == 0 {
		return nil, errors.ValidationError("node has no ancestors to diff against", nil)
	}

	ancestorParam := r.URL.Query().Get("ancestor")
	if ancestorParam == "" {
		return ancestors[0], nil
	}
	rev, err := validation.ParseRevision(ancestorParam)
	if err != nil {
		return nil, err
	}
	for _, e := range ancestors {
		if e.Ancestor().File().Revision == rev {
			return e, nil
		}
	}
	return nil, errors.NotFound("no ancestor at revision " + rev.String())
}

func (h *HistoryHandler) ListChangeSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.manager.ChangeSets()
	if err != nil {
		writeError(w, errors.Internal(err.Error()))
		return
	}
	if sets == nil {
		sets = []change.ChangeSet{}
	}
	writeJSON(w, http.StatusOK, sets)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*errors.Error)
	if !ok {
		apiErr = errors.Internal(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}
