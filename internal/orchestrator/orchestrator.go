// Package orchestrator sequences one staging run: tiers in fixed order,
// content kinds within each tier, and the locate → index → filter → copy
// pipeline for each dataset. Processing is strictly sequential; at most
// one (tier, dataset) spatial index exists in memory at a time.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/geostage-labs/geostage-go/internal/aoi"
	"github.com/geostage-labs/geostage-go/internal/columnar"
	"github.com/geostage-labs/geostage-go/internal/directive"
	"github.com/geostage-labs/geostage-go/internal/domain"
	"github.com/geostage-labs/geostage-go/internal/fsx"
	"github.com/geostage-labs/geostage-go/internal/granule"
	"github.com/geostage-labs/geostage-go/internal/platform/hdf"
	"github.com/geostage-labs/geostage-go/internal/repo"
	"github.com/geostage-labs/geostage-go/internal/tileindex"
	"github.com/geostage-labs/geostage-go/internal/transfer"
	"github.com/geostage-labs/geostage-go/internal/vector"
)

// DateFilter is the post-copy columnar filter collaborator.
type DateFilter interface {
	FilterByDate(path string, date string) (int, error)
}

// Config wires one run. Source and OutputBase are required; collaborator
// fields default to the production implementations when nil.
type Config struct {
	Directive  directive.Directive
	Source     fsx.FS
	OutputBase string

	Footprints  tileindex.FootprintReader
	Coords      tileindex.CoordReader
	Reprojector tileindex.Reprojector
	DateFilter  DateFilter
	Ledger      repo.Ledger
	Workers     int
}

type Orchestrator struct {
	logger      *slog.Logger
	dir         directive.Directive
	fsys        fsx.FS
	outBase     string
	footprints  tileindex.FootprintReader
	coords      tileindex.CoordReader
	reprojector tileindex.Reprojector
	dateFilter  DateFilter
	ledger      repo.Ledger
	workers     int
	now         func() time.Time
}

func New(logger *slog.Logger, cfg Config) (*Orchestrator, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("source filesystem is required")
	}
	if strings.TrimSpace(cfg.OutputBase) == "" {
		return nil, fmt.Errorf("output base is required")
	}
	o := &Orchestrator{
		logger:      logger,
		dir:         cfg.Directive,
		fsys:        cfg.Source,
		outBase:     cfg.OutputBase,
		footprints:  cfg.Footprints,
		coords:      cfg.Coords,
		reprojector: cfg.Reprojector,
		dateFilter:  cfg.DateFilter,
		ledger:      cfg.Ledger,
		workers:     cfg.Workers,
		now:         time.Now,
	}
	if o.footprints == nil {
		o.footprints = tileindex.NewGeoTIFFReader()
	}
	if o.coords == nil {
		o.coords = hdf.NewReader()
	}
	if o.reprojector == nil {
		o.reprojector = tileindex.NewProjReprojector()
	}
	if o.dateFilter == nil {
		o.dateFilter = columnar.NewFilter()
	}
	if o.workers <= 0 {
		o.workers = transfer.DefaultWorkers
	}
	return o, nil
}

// Run executes the whole staging run. Any returned error terminated the
// run; there is no mid-run cancellation beyond that.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o == nil {
		return fmt.Errorf("orchestrator not initialized")
	}
	aoiGeom, err := aoi.Load(o.dir.AOI)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.outBase, 0o755); err != nil {
		return fmt.Errorf("create output base: %w", err)
	}

	runID := uuid.NewString()
	startedAt := o.now().UTC()
	o.beginRun(ctx, domain.StagingRun{
		ID:         runID,
		TargetDate: o.dir.Date,
		AOIPath:    o.dir.AOI,
		OutputBase: o.outBase,
		Remote:     o.dir.Remote(),
		Status:     domain.RunStatusRunning,
		StartedAt:  startedAt,
	})

	runErr := o.process(ctx, runID, aoiGeom)

	status := domain.RunStatusSucceeded
	if runErr != nil {
		status = domain.RunStatusFailed
	}
	o.finishRun(ctx, runID, status)
	return runErr
}

func (o *Orchestrator) process(ctx context.Context, runID string, aoiGeom geom.Geometry) error {
	for _, tier := range o.dir.OrderedTiers() {
		o.logger.Info("processing tier", "tier", tier.String())
		content := o.dir.Tiers[tier]
		root := o.dir.TierRoot(tier)

		if tier == domain.TierReference {
			if err := o.mirrorReference(ctx, runID, root); err != nil {
				return err
			}
			continue
		}
		if err := o.processRasters(ctx, runID, tier, root, content, aoiGeom); err != nil {
			return err
		}
		if err := o.processHDF(ctx, runID, tier, root, content, aoiGeom); err != nil {
			return err
		}
		if err := o.processVectors(ctx, runID, tier, root, content, aoiGeom); err != nil {
			return err
		}
		if err := o.processTables(ctx, runID, tier, root, content); err != nil {
			return err
		}
		if err := o.processColumnar(ctx, runID, tier, root, content); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) processRasters(ctx context.Context, runID string, tier domain.Tier, root string, content directive.Content, aoiGeom geom.Geometry) error {
	for _, dataset := range content.Raster {
		files, err := granule.ListRastersForDate(ctx, o.fsys, root, dataset, o.dir.DateToken())
		if err != nil {
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: dataset.String(), Detail: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if len(files) == 0 {
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: dataset.String(), Detail: "no granules for date " + o.dir.DateToken()}); err != nil {
				return err
			}
			continue
		}
		records, err := tileindex.BuildRaster(ctx, o.fsys, files, o.footprints, o.reprojector)
		if err != nil {
			return err
		}
		if err := o.copyMatches(ctx, runID, tier, dataset.String(), aoi.Filter(records, aoiGeom), dataset.SidecarSuffix()); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) processHDF(ctx context.Context, runID string, tier domain.Tier, root string, content directive.Content, aoiGeom geom.Geometry) error {
	for _, dataset := range content.HDF {
		files, err := granule.ListHDFForDate(ctx, o.fsys, root, dataset, o.dir.DateToken())
		if err != nil {
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: dataset.String(), Detail: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if len(files) == 0 {
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: dataset.String(), Detail: "no granules for date " + o.dir.DateToken()}); err != nil {
				return err
			}
			continue
		}
		records, err := tileindex.BuildHDF(ctx, o.fsys, files, o.coords)
		if err != nil {
			return err
		}
		if err := o.copyMatches(ctx, runID, tier, dataset.String(), aoi.Filter(records, aoiGeom), ""); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) copyMatches(ctx context.Context, runID string, tier domain.Tier, dataset string, outcome aoi.FilterOutcome, sidecarSuffix string) error {
	switch outcome.Kind {
	case aoi.NoCandidates:
		o.logger.Warn("empty spatial index", "tier", tier.String(), "dataset", dataset)
		return nil
	case aoi.NoIntersection:
		o.logger.Info("no granules intersect aoi", "tier", tier.String(), "dataset", dataset)
		return nil
	}
	for _, src := range outcome.Paths {
		dest := filepath.Join(o.outBase, tier.String(), dataset, path.Base(src))
		if err := o.copyFile(ctx, src, dest); err != nil {
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: dataset, Source: src, Dest: dest,
				Status: domain.CopyFailed, Detail: err.Error(),
			})
			return &domain.CopyError{Source: src, Dest: dest, Err: err}
		}
		o.record(ctx, runID, domain.CopyOutcome{
			Tier: tier, Dataset: dataset, Source: src, Dest: dest,
			Status: domain.CopySuccess,
		})
		o.logger.Info("granule copied", "tier", tier.String(), "dataset", dataset, "source", src, "dest", dest)

		if sidecarSuffix != "" {
			o.copySidecar(ctx, tier, dataset, src, sidecarSuffix)
		}
	}
	return nil
}

// copySidecar copies the companion metadata file next to a granule. A
// missing or unreadable sidecar is always a warning, regardless of the
// missing-files policy.
func (o *Orchestrator) copySidecar(ctx context.Context, tier domain.Tier, dataset, src, suffix string) {
	sidecar := strings.TrimSuffix(src, path.Ext(src)) + suffix
	dest := filepath.Join(o.outBase, tier.String(), dataset, path.Base(sidecar))
	if err := o.copyFile(ctx, sidecar, dest); err != nil {
		o.logger.Warn("sidecar not copied", "tier", tier.String(), "dataset", dataset, "sidecar", sidecar, "error", err)
		return
	}
	o.logger.Info("sidecar copied", "tier", tier.String(), "dataset", dataset, "sidecar", sidecar, "dest", dest)
}

func (o *Orchestrator) processVectors(ctx context.Context, runID string, tier domain.Tier, root string, content directive.Content, aoiGeom geom.Geometry) error {
	for _, vf := range content.Vector {
		src := path.Join(root, vf.Name)
		exists, err := o.fsys.Exists(ctx, src)
		if err != nil {
			return fmt.Errorf("check %s: %w", src, err)
		}
		if !exists {
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: vf.Name, Source: src,
				Status: domain.CopySkippedMissing,
			})
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: vf.Name, Detail: "vector file not found"}); err != nil {
				return err
			}
			continue
		}
		dest := filepath.Join(o.outBase, tier.String(), filepath.FromSlash(vf.Name))
		count, err := vector.Subset(ctx, o.fsys, src, dest, aoiGeom)
		if err != nil {
			return err
		}
		if count == 0 {
			o.logger.Warn("vector file is empty after aoi filtering", "tier", tier.String(), "vector", vf.Name)
		}
		o.record(ctx, runID, domain.CopyOutcome{
			Tier: tier, Dataset: vf.Name, Source: src, Dest: dest,
			Status: domain.CopySuccess, Detail: fmt.Sprintf("features=%d", count),
		})
		o.logger.Info("vector file copied", "tier", tier.String(), "vector", vf.Name, "features", count, "dest", dest)
	}
	return nil
}

func (o *Orchestrator) processTables(ctx context.Context, runID string, tier domain.Tier, root string, content directive.Content) error {
	for _, tf := range content.Table {
		src := path.Join(root, tf.Name)
		exists, err := o.fsys.Exists(ctx, src)
		if err != nil {
			return fmt.Errorf("check %s: %w", src, err)
		}
		if !exists {
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: tf.Name, Source: src,
				Status: domain.CopySkippedMissing,
			})
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: tf.Name, Detail: "tabular file not found"}); err != nil {
				return err
			}
			continue
		}
		dest := filepath.Join(o.outBase, tier.String(), filepath.FromSlash(tf.Name))
		if err := o.copyFile(ctx, src, dest); err != nil {
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: tf.Name, Source: src, Dest: dest,
				Status: domain.CopyFailed, Detail: err.Error(),
			})
			return &domain.CopyError{Source: src, Dest: dest, Err: err}
		}
		o.record(ctx, runID, domain.CopyOutcome{
			Tier: tier, Dataset: tf.Name, Source: src, Dest: dest,
			Status: domain.CopySuccess,
		})
		o.logger.Info("tabular file copied", "tier", tier.String(), "table", tf.Name, "dest", dest)
	}
	return nil
}

func (o *Orchestrator) processColumnar(ctx context.Context, runID string, tier domain.Tier, root string, content directive.Content) error {
	for _, cf := range content.Parquet {
		src := path.Join(root, cf.Name)
		exists, err := o.fsys.Exists(ctx, src)
		if err != nil {
			return fmt.Errorf("check %s: %w", src, err)
		}
		if !exists {
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: cf.Name, Source: src,
				Status: domain.CopySkippedMissing,
			})
			if err := o.miss(&domain.LookupMiss{Tier: tier, Name: cf.Name, Detail: "columnar file not found"}); err != nil {
				return err
			}
			continue
		}
		dest := filepath.Join(o.outBase, tier.String(), filepath.FromSlash(cf.Name))
		if err := o.copyFile(ctx, src, dest); err != nil {
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: cf.Name, Source: src, Dest: dest,
				Status: domain.CopyFailed, Detail: err.Error(),
			})
			return &domain.CopyError{Source: src, Dest: dest, Err: err}
		}

		// The raw copy is already the artifact; the date filter only
		// improves it. A filter failure keeps the unfiltered copy.
		rows, err := o.dateFilter.FilterByDate(dest, o.dir.Date.Format("2006-01-02"))
		if err != nil {
			post := &domain.PostProcessError{Path: dest, Err: err}
			o.logger.Warn("columnar date filter failed, keeping unfiltered copy", "tier", tier.String(), "file", cf.Name, "error", post)
			o.record(ctx, runID, domain.CopyOutcome{
				Tier: tier, Dataset: cf.Name, Source: src, Dest: dest,
				Status: domain.CopySuccess, Detail: "unfiltered: " + err.Error(),
			})
			continue
		}
		o.record(ctx, runID, domain.CopyOutcome{
			Tier: tier, Dataset: cf.Name, Source: src, Dest: dest,
			Status: domain.CopySuccess, Detail: fmt.Sprintf("rows=%d", rows),
		})
		o.logger.Info("columnar file copied and filtered", "tier", tier.String(), "file", cf.Name, "rows", rows, "dest", dest)
	}
	return nil
}

func (o *Orchestrator) mirrorReference(ctx context.Context, runID string, root string) error {
	destBase := filepath.Join(o.outBase, domain.TierReference.String())
	results, err := transfer.Mirror(ctx, o.fsys, root, destBase, o.workers)
	if err != nil {
		return o.miss(&domain.LookupMiss{Tier: domain.TierReference, Name: root, Detail: err.Error()})
	}
	var firstErr error
	for _, r := range results {
		outcome := domain.CopyOutcome{
			Tier: domain.TierReference, Dataset: domain.TierReference.String(),
			Source: r.Source, Dest: r.Dest, Status: domain.CopySuccess,
		}
		if r.Err != nil {
			outcome.Status = domain.CopyFailed
			outcome.Detail = r.Err.Error()
			if firstErr == nil {
				firstErr = &domain.CopyError{Source: r.Source, Dest: r.Dest, Err: r.Err}
			}
		}
		o.record(ctx, runID, outcome)
	}
	if firstErr != nil {
		return firstErr
	}
	o.logger.Info("reference tier mirrored", "files", len(results), "dest", destBase)
	return nil
}

// miss applies the missing-files policy to one lookup miss: fatal under
// the strict policy, a warning otherwise.
func (o *Orchestrator) miss(m *domain.LookupMiss) error {
	if o.dir.ErrorForMissingFiles {
		o.logger.Error("missing input", "tier", m.Tier.String(), "name", m.Name, "detail", m.Detail)
		return m
	}
	o.logger.Warn("missing input", "tier", m.Tier.String(), "name", m.Name, "detail", m.Detail)
	return nil
}

func (o *Orchestrator) copyFile(ctx context.Context, src, dest string) error {
	rc, err := o.fsys.Open(ctx, src)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (o *Orchestrator) beginRun(ctx context.Context, run domain.StagingRun) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.BeginRun(ctx, run); err != nil {
		o.logger.Warn("ledger begin failed", "run", run.ID, "error", err)
	}
}

func (o *Orchestrator) record(ctx context.Context, runID string, outcome domain.CopyOutcome) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.RecordOutcome(ctx, runID, outcome); err != nil {
		o.logger.Warn("ledger record failed", "run", runID, "error", err)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, runID string, status string) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.FinishRun(ctx, runID, status, o.now().UTC()); err != nil {
		o.logger.Warn("ledger finish failed", "run", runID, "error", err)
	}
}
