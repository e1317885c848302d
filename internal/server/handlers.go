package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lherron/taxomobile/internal/build"
	"github.com/lherron/taxomobile/internal/id"
	"github.com/lherron/taxomobile/internal/paths"
	"github.com/lherron/taxomobile/internal/render"
	"github.com/lherron/taxomobile/internal/snapshot"
	"github.com/lherron/taxomobile/internal/taxon"
)

// NodeDetail is the data behind a node's detail panel.
type NodeDetail struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Level            taxon.Rank     `json:"level"`
	Path             string         `json:"path"`
	Lineage          []string       `json:"lineage"`
	Parent           string         `json:"parent,omitempty"`
	LeafImage        string         `json:"leaf_image,omitempty"`
	DescendantImages []string       `json:"descendant_images,omitempty"`
	CollageGridSize  int            `json:"collage_grid_size,omitempty"`
	Children         []ChildSummary `json:"children,omitempty"`
}

// ChildSummary names one child of a node.
type ChildSummary struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Level taxon.Rank `json:"level"`
}

// Stats summarizes the published build.
type Stats struct {
	Rev        string             `json:"rev"`
	BuiltAt    string             `json:"built_at"`
	Source     string             `json:"source"`
	Nodes      int                `json:"nodes"`
	ByRank     map[taxon.Rank]int `json:"by_rank"`
	Records    int                `json:"records"`
	Merged     int                `json:"merged"`
	Empty      int                `json:"empty"`
	Overwrites int                `json:"overwrites"`
	Skipped    int                `json:"skipped_files"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "ready": false}
	if res, err := s.Current(); err == nil {
		body["ready"] = true
		body["rev"] = res.Rev
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	res, ok := s.ready(w)
	if !ok {
		return
	}
	s.writeView(w, r, res, 0)
}

func (s *Server) handleSubtree(w http.ResponseWriter, r *http.Request) {
	res, ok := s.ready(w)
	if !ok {
		return
	}
	segments := paths.SplitPath(chi.URLParam(r, "*"))
	nodeID, err := res.Tree.Lookup(segments, paths.MatchSlug)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	s.writeView(w, r, res, nodeID)
}

func (s *Server) writeView(w http.ResponseWriter, r *http.Request, res *build.Result, start taxon.NodeID) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"), render.FormatJSON)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	depth, err := queryInt(r, "depth")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	etag := fmt.Sprintf("%q", res.Rev)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	view, err := snapshot.FromNode(res.Tree, start, snapshot.Options{MaxDepth: depth})
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	switch format {
	case render.FormatJSON:
		out := *res.Snapshot
		out.Tree = view
		writeJSON(w, http.StatusOK, &out)
	case render.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
		_ = render.NewRenderer(w, render.Options{}).RenderYAML(view)
	case render.FormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
		nodes := snapshot.Flatten(view)
		items := make([]interface{}, len(nodes))
		for i, n := range nodes {
			flat := *n
			flat.Children = nil
			items[i] = &flat
		}
		_ = render.NewRenderer(w, render.Options{}).RenderNDJSON(items)
	case render.FormatTSV:
		w.Header().Set("Content-Type", "text/tab-separated-values")
		_ = render.NewRenderer(w, render.Options{}).RenderTreeTSV(view)
	case render.FormatTable:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = render.NewRenderer(w, render.Options{}).RenderTable(render.TreeHeaders, render.TreeRows(view))
	case render.FormatTree:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = render.NewRenderer(w, render.Options{Images: true}).RenderTree(view)
	default:
		jsonError(w, fmt.Sprintf("unsupported format %q", format), http.StatusBadRequest)
	}
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	res, ok := s.ready(w)
	if !ok {
		return
	}
	nodeID, err := parseNodeID(chi.URLParam(r, "nodeID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := res.Tree.Node(nodeID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	lineage, _ := res.Tree.Lineage(nodeID)

	detail := NodeDetail{
		ID:              id.FormatNode(int(n.ID)),
		Name:            n.Name,
		Level:           n.Level,
		Path:            paths.SlugPath(lineage),
		Lineage:         lineage,
		LeafImage:       string(n.LeafImage),
		CollageGridSize: n.CollageGridSize,
	}
	if detail.Lineage == nil {
		detail.Lineage = []string{}
	}
	if n.Parent != taxon.NoParent {
		detail.Parent = id.FormatNode(int(n.Parent))
	}
	for _, img := range n.DescendantImages {
		detail.DescendantImages = append(detail.DescendantImages, string(img))
	}
	for _, childID := range n.Children {
		c, err := res.Tree.Node(childID)
		if err != nil {
			continue
		}
		detail.Children = append(detail.Children, ChildSummary{
			ID:    id.FormatNode(int(c.ID)),
			Name:  c.Name,
			Level: c.Level,
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, ok := s.ready(w)
	if !ok {
		return
	}
	stats := Stats{
		Rev:        res.Rev,
		BuiltAt:    snapshot.FormatTimestamp(res.BuiltAt),
		Source:     s.builder.Source(),
		Nodes:      res.Tree.Len(),
		ByRank:     res.Tree.CountByRank(),
		Records:    res.Stats.Records,
		Merged:     res.Stats.Merged,
		Empty:      res.Stats.Empty,
		Overwrites: len(res.Stats.Overwrites),
	}
	if res.Report != nil {
		stats.Skipped = len(res.Report.Skipped)
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := s.Reload(r.Context())
	if err != nil {
		var ve *taxon.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      "malformed tree",
				"violations": violationBodies(ve),
			})
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rev":         res.Rev,
		"nodes":       res.Tree.Len(),
		"records":     res.Stats.Records,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

// ready writes 503 and returns false until a tree has been published.
func (s *Server) ready(w http.ResponseWriter) (*build.Result, bool) {
	res, err := s.Current()
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return nil, false
	}
	return res, true
}

func violationBodies(ve *taxon.ValidationError) []map[string]any {
	out := make([]map[string]any, len(ve.Violations))
	for i, v := range ve.Violations {
		out[i] = map[string]any{
			"kind":    v.Kind,
			"node":    id.FormatNode(int(v.Node)),
			"message": v.Message,
		}
	}
	return out
}

// parseNodeID accepts "N-00012" or a bare index.
func parseNodeID(s string) (taxon.NodeID, error) {
	if typ, seq, err := id.Parse(s); err == nil {
		if typ != id.TypeNode {
			return 0, fmt.Errorf("not a node id: %s", s)
		}
		return taxon.NodeID(seq), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid node id: %s", s)
	}
	return taxon.NodeID(n), nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
