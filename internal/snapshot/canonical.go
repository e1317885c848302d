package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON produces a deterministic JSON encoding:
// - Object keys sorted lexicographically
// - No insignificant whitespace
// - Children and image lists keep tree order
// - Empty optional fields omitted
func CanonicalJSON(s *Snapshot) ([]byte, error) {
	ordered := buildOrderedSnapshot(s)

	// Use a custom encoder that doesn't escape HTML and uses no indentation
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(ordered); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Remove trailing newline added by Encode
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return result, nil
}

// ComputeRev hashes the canonical form of s with its rev and timestamp
// cleared, so identical trees share a revision. Returns "sha256:<hex>".
func ComputeRev(s *Snapshot) (string, error) {
	unstamped := *s
	unstamped.Meta.SnapshotRev = ""
	unstamped.Meta.GeneratedAt = ""

	data, err := CanonicalJSON(&unstamped)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:]), nil
}

// Stamp sets s.Meta.SnapshotRev and returns the canonical bytes.
func Stamp(s *Snapshot) ([]byte, error) {
	rev, err := ComputeRev(s)
	if err != nil {
		return nil, err
	}
	s.Meta.SnapshotRev = rev
	return CanonicalJSON(s)
}

// buildOrderedSnapshot creates an ordered map structure for canonical JSON.
// Order: meta, root, tree
func buildOrderedSnapshot(s *Snapshot) orderedMap {
	result := make(orderedMap, 0, 3)
	result = append(result, keyValue{"meta", buildOrderedMeta(&s.Meta)})
	result = append(result, keyValue{"root", buildOrderedRoot(&s.Root)})
	if s.Tree != nil {
		result = append(result, keyValue{"tree", buildOrderedNode(s.Tree)})
	}
	return result
}

// orderedMap is a slice of key-value pairs that marshals as a JSON object
// with keys in the order they appear in the slice.
type orderedMap []keyValue

type keyValue struct {
	Key   string
	Value interface{}
}

func (om orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, kv := range om {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func buildOrderedMeta(m *Meta) orderedMap {
	result := make(orderedMap, 0, 6)

	// Fields in lexicographic order
	if m.GeneratedAt != "" {
		result = append(result, keyValue{"generated_at", m.GeneratedAt})
	}
	result = append(result, keyValue{"leaf_rule", m.LeafRule})
	result = append(result, keyValue{"nodes", m.Nodes})
	if m.Records != 0 {
		result = append(result, keyValue{"records", m.Records})
	}
	result = append(result, keyValue{"schema_version", m.SchemaVersion})
	if m.SnapshotRev != "" {
		result = append(result, keyValue{"snapshot_rev", m.SnapshotRev})
	}

	return result
}

func buildOrderedRoot(r *RootView) orderedMap {
	result := make(orderedMap, 0, 2)
	if r.BackImage != "" {
		result = append(result, keyValue{"back_image", r.BackImage})
	}
	if r.FrontImage != "" {
		result = append(result, keyValue{"front_image", r.FrontImage})
	}
	return result
}

func buildOrderedNode(n *NodeView) orderedMap {
	result := make(orderedMap, 0, 8)

	// Fields in lexicographic order
	if len(n.Children) > 0 {
		children := make([]orderedMap, len(n.Children))
		for i, c := range n.Children {
			children[i] = buildOrderedNode(c)
		}
		result = append(result, keyValue{"children", children})
	}
	if n.CollageGridSize != 0 {
		result = append(result, keyValue{"collage_grid_size", n.CollageGridSize})
	}
	if len(n.DescendantImages) > 0 {
		result = append(result, keyValue{"descendant_images", n.DescendantImages})
	}
	result = append(result, keyValue{"id", n.ID})
	if n.LeafImage != "" {
		result = append(result, keyValue{"leaf_image", n.LeafImage})
	}
	result = append(result, keyValue{"level", n.Level.String()})
	result = append(result, keyValue{"name", n.Name})
	result = append(result, keyValue{"path", n.Path})

	return result
}

// PrettyJSON produces human-readable indented JSON (non-canonical).
func PrettyJSON(s *Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
