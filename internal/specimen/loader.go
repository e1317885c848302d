package specimen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lherron/taxomobile/internal/taxon"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader reads record files and hands them back in a fixed order.
type Loader struct {
	Dir       string
	ImageBase string
	ImageExt  string
	Workers   int
	Log       *zap.Logger
}

// Skipped describes a file that produced no record.
type Skipped struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// LoadReport summarizes a load.
type LoadReport struct {
	Files   int        `json:"files"`
	Loaded  int        `json:"loaded"`
	Skipped []Skipped  `json:"skipped,omitempty"`
	Root    RootImages `json:"root"`
}

// Load reads the records named by the directory's manifest, or every record
// file in the directory when there is no manifest.
func (l *Loader) Load(ctx context.Context) ([]taxon.Record, *LoadReport, error) {
	manifest, err := LoadManifest(l.Dir)
	if err != nil {
		return nil, nil, err
	}

	var files []string
	var root RootImages
	if manifest != nil {
		files = manifest.Files(l.Dir)
		root = manifest.Root
	} else {
		files, err = Discover(l.Dir)
		if err != nil {
			return nil, nil, err
		}
	}

	records, report, err := l.LoadFiles(ctx, files)
	if err != nil {
		return nil, nil, err
	}
	report.Root = root
	return records, report, nil
}

// LoadFiles reads files concurrently and returns their records in the order
// given. Unreadable or malformed files are skipped, not fatal.
func (l *Loader) LoadFiles(ctx context.Context, files []string) ([]taxon.Record, *LoadReport, error) {
	log := l.logger()

	type result struct {
		rec taxon.Record
		err error
	}
	results := make([]result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := l.loadFile(file)
			results[i] = result{rec: rec, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("load cancelled: %w", err)
	}

	report := &LoadReport{Files: len(files)}
	records := make([]taxon.Record, 0, len(files))
	for i, r := range results {
		if r.err != nil {
			log.Warn("skipping specimen file", zap.String("file", files[i]), zap.Error(r.err))
			report.Skipped = append(report.Skipped, Skipped{File: files[i], Reason: r.err.Error()})
			continue
		}
		records = append(records, r.rec)
	}
	report.Loaded = len(records)
	log.Debug("loaded specimens", zap.Int("files", report.Files), zap.Int("loaded", report.Loaded))
	return records, report, nil
}

func (l *Loader) loadFile(file string) (taxon.Record, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return taxon.Record{}, fmt.Errorf("failed to read: %w", err)
	}

	rec, err := ParseRecord(filepath.Base(file), data)
	if err != nil {
		return taxon.Record{}, err
	}
	if rec.Image == "" {
		rec.Image = ImageFor(file, l.ImageBase, l.ImageExt)
	} else {
		rec.Image = resolveImage(rec.Image, l.ImageBase)
	}
	return rec, nil
}

func (l *Loader) workers() int {
	if l.Workers <= 0 {
		return 1
	}
	return l.Workers
}

func (l *Loader) logger() *zap.Logger {
	if l.Log == nil {
		return zap.NewNop()
	}
	return l.Log
}
