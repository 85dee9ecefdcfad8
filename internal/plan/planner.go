// Package plan runs one list-building pass: direct selection, path
// completion, missing-scene recovery and emission.
package plan

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/neighbor"
	"github.com/franz/scenelist/internal/proclist"
	"github.com/franz/scenelist/internal/report"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/selection"
	"github.com/franz/scenelist/internal/tilegrid"
	"github.com/franz/scenelist/internal/util"
)

// Planner builds processing lists
type Planner struct {
	workers int
	logger  *report.EventLogger
}

// Config holds planner configuration
type Config struct {
	Workers int // concurrent path completions, 0 = GOMAXPROCS
	Logger  *report.EventLogger
}

// New creates a new Planner
func New(cfg *Config) *Planner {
	if cfg == nil {
		cfg = &Config{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Planner{workers: workers, logger: cfg.Logger}
}

// Inputs are the run's immutable snapshots plus selection criteria.
type Inputs struct {
	Catalog    *catalog.Catalog
	Grid       *tilegrid.Grid
	Exclusions *exclude.Rules
	Holdings   *holdings.Index
	Criteria   selection.Criteria

	// AllInPath completes partially selected paths and recovers missing
	// scenes from the catalog.
	AllInPath bool
}

// Result represents planning results
type Result struct {
	Lists     *proclist.Lists
	Accepted  int
	Neighbors int
	Missing   int
	Gaps      int
	Rejected  map[selection.Reason]int
}

// Run executes the pass. Configuration errors are returned before anything
// is added, so a failed run never yields a partial list.
func (p *Planner) Run(ctx context.Context, in Inputs) (*Result, error) {
	if in.Catalog == nil {
		return nil, util.NewConfigError("catalog", "no scene catalog loaded")
	}
	if in.AllInPath && in.Grid == nil {
		return nil, util.NewConfigError("grid", "path completion requires a tile grid")
	}
	filter, err := selection.New(in.Criteria, in.Exclusions, in.Holdings)
	if err != nil {
		return nil, err
	}

	criteria := filter.Criteria()
	util.InfoLog("Selecting scenes: %s", criteria.String())

	builder := proclist.New(in.Catalog, in.Exclusions, in.Holdings)
	result := &Result{Rejected: make(map[selection.Reason]int)}

	// Step 1: direct selection in catalog order
	var accepted []*scene.Record
	for _, rec := range in.Catalog.Records() {
		if reason := filter.Check(rec); reason != selection.Accepted {
			result.Rejected[reason]++
			p.logger.LogReject(rec.ID.String(), string(reason))
			continue
		}
		added, err := builder.AddAccepted(rec.ID, rec.Family(), rec.DateKey(), proclist.MechanismDirect)
		if err != nil {
			p.logger.LogError(report.EventAccept, rec.ID.String(), err)
			return nil, err
		}
		if added {
			accepted = append(accepted, rec)
			result.Accepted++
			p.logSelection(report.EventAccept, rec, "", "")
		}
	}
	util.InfoLog("Accepted %d of %d catalog scenes", result.Accepted, in.Catalog.Len())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if in.AllInPath {
		// Step 2: complete paths of accepted scenes
		if err := p.completePaths(ctx, in, builder, accepted, result); err != nil {
			return nil, err
		}

		// Step 3: recover scenes no criterion selected
		missing, err := builder.FindMissing()
		if err != nil {
			return nil, err
		}
		for _, id := range missing {
			rec, _ := in.Catalog.Lookup(id)
			p.logSelection(report.EventMissing, rec, "", "not held locally")
		}
		result.Missing = len(missing)
		util.InfoLog("Recovered %d missing scenes", result.Missing)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lists, err := builder.Emit()
	if err != nil {
		return nil, err
	}
	result.Lists = lists
	util.SuccessLog("Processing lists ready: %d L4-7, %d L8", len(lists.L47), len(lists.L8))

	return result, nil
}

// completePaths finds neighbors for every accepted scene concurrently, then
// inserts them serially in acceptance order so the list stays deterministic.
func (p *Planner) completePaths(ctx context.Context, in Inputs, builder *proclist.Builder, accepted []*scene.Record, result *Result) error {
	completer := neighbor.New(&neighbor.Config{
		Grid:       in.Grid,
		Catalog:    in.Catalog,
		Exclusions: in.Exclusions,
		Holdings:   in.Holdings,
	})

	total := len(accepted)
	util.InfoLog("Completing paths for %d accepted scenes", total)

	var processed atomic.Int64
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()
	go p.reportProgress(progressCtx, &processed, total)

	mapper := iter.Mapper[*scene.Record, neighbor.Result]{MaxGoroutines: p.workers}
	completions := mapper.Map(accepted, func(rec **scene.Record) neighbor.Result {
		defer processed.Add(1)
		if ctx.Err() != nil {
			return neighbor.Result{Source: (*rec).ID}
		}
		return completer.CompleteWithGaps(*rec, builder)
	})
	cancelProgress()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, res := range completions {
		source := accepted[i]
		for _, row := range res.Gaps {
			result.Gaps++
			p.logger.LogGap(source.ID.String(), row, source.DateKey().String())
		}
		for _, id := range res.IDs {
			rec, ok := in.Catalog.Lookup(id)
			if !ok {
				continue
			}
			added, err := builder.AddAccepted(id, rec.Family(), rec.DateKey(), proclist.MechanismNeighbor)
			if err != nil {
				return err
			}
			if added {
				result.Neighbors++
				p.logSelection(report.EventNeighbor, rec, source.ID.String(), "same path and date")
			}
		}
	}

	util.InfoLog("Added %d neighbor scenes, %d grid rows had no scene", result.Neighbors, result.Gaps)
	return nil
}

func (p *Planner) reportProgress(ctx context.Context, processed *atomic.Int64, total int) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := processed.Load()
			if n > 0 && total > 0 {
				util.InfoLog("Path completion: %d/%d (%.1f%%)", n, total, float64(n)/float64(total)*100)
			}
		}
	}
}

func (p *Planner) logSelection(event report.EventType, rec *scene.Record, source, reason string) {
	if rec == nil {
		return
	}
	p.logger.LogSelection(event, rec.ID.String(), rec.OutputID(), rec.Family().String(),
		rec.DateKey().String(), source, reason)
}

// RejectedByName converts rejection counts for reporting.
func (r *Result) RejectedByName() map[string]int {
	out := make(map[string]int, len(r.Rejected))
	for reason, n := range r.Rejected {
		out[string(reason)] = n
	}
	return out
}
