// Package specimen loads specimen records from data files.
//
// A record file is a flat JSON or YAML object keyed by rank name:
//
//	{"kingdom": "Animalia", "phylum": "Chordata", ..., "species": "Felis catus"}
//
// The image for a record is derived from the file's base name unless the
// file sets an explicit "image" key.
package specimen

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/lherron/taxomobile/internal/taxon"
	"gopkg.in/yaml.v3"
)

// ErrNoRecords is returned when a load produced nothing to merge.
var ErrNoRecords = errors.New("no specimen records")

// Format represents supported record file formats
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// imageKey overrides the derived image when present in a record file.
const imageKey = "image"

// DetectFormat determines whether data is a JSON or YAML object.
func DetectFormat(data []byte) (Format, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", fmt.Errorf("empty record")
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var js json.RawMessage
		if err := json.Unmarshal(data, &js); err == nil {
			return FormatJSON, nil
		}
		return "", fmt.Errorf("input appears to be JSON but is invalid")
	}

	// YAML accepts plain text too, so require a mapping.
	var probe interface{}
	if err := yaml.Unmarshal(data, &probe); err == nil {
		if _, ok := probe.(map[string]interface{}); ok {
			return FormatYAML, nil
		}
	}
	return "", fmt.Errorf("record is neither a JSON nor a YAML object")
}

// ParseRecord decodes one record file. Rank keys are matched case-insensitively,
// "domain" and unknown keys are ignored, and blank values are dropped.
func ParseRecord(source string, data []byte) (taxon.Record, error) {
	rec := taxon.Record{Source: source, Lineage: make(map[taxon.Rank]string)}

	format, err := DetectFormat(data)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", source, err)
	}

	var fields map[string]interface{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &fields); err != nil {
			return rec, fmt.Errorf("%s: invalid JSON: %w", source, err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return rec, fmt.Errorf("%s: invalid YAML: %w", source, err)
		}
	}

	// Keys differing only in case would otherwise race on map order.
	seen := make(map[string]string, len(fields))
	for key := range fields {
		norm := strings.ToLower(strings.TrimSpace(key))
		if norm != imageKey {
			if _, err := taxon.ParseRank(norm); err != nil {
				continue
			}
		}
		if prev, dup := seen[norm]; dup {
			return rec, fmt.Errorf("%s: duplicate key %q (also %q)", source, norm, prev)
		}
		seen[norm] = key
	}

	for key, raw := range fields {
		value, ok := raw.(string)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		key = strings.ToLower(strings.TrimSpace(key))
		if key == imageKey {
			rec.Image = taxon.ImageRef(value)
			continue
		}
		rank, err := taxon.ParseRank(key)
		if err != nil || rank == taxon.RankDomain {
			continue
		}
		rec.Lineage[rank] = value
	}
	return rec, nil
}

// ImageFor derives the image path of a record file: base/<stem><ext>, where
// stem is the file name up to its first dot.
func ImageFor(file, base, ext string) taxon.ImageRef {
	name := filepath.Base(file)
	stem := name
	if i := strings.Index(name, "."); i >= 0 {
		stem = name[:i]
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if base == "" {
		return taxon.ImageRef(stem + ext)
	}
	return taxon.ImageRef(path.Join(base, stem+ext))
}

// resolveImage places a bare image name under base; paths and URLs pass through.
func resolveImage(image taxon.ImageRef, base string) taxon.ImageRef {
	s := string(image)
	if base == "" || strings.Contains(s, "/") || strings.Contains(s, "://") {
		return image
	}
	return taxon.ImageRef(path.Join(base, s))
}
