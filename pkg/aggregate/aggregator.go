package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/kbase/workspace-usage/internal/logctx"
	"github.com/kbase/workspace-usage/pkg/logging"
	"github.com/kbase/workspace-usage/pkg/usagecfg"
	"github.com/kbase/workspace-usage/pkg/wsdb"
	"github.com/kbase/workspace-usage/pkg/wsindex"
	"github.com/rs/zerolog"
)

// DefaultPageSize is how many object ids each store query spans. A single
// workspace can hold millions of objects; paging by fixed id range is the
// only resource bound in this job.
const DefaultPageSize = 10000

// Config controls a single aggregation pass.
type Config struct {
	// PageSize is the width of each object-id range scanned per query.
	// Zero means DefaultPageSize.
	PageSize int64

	// LatestOnly counts only the version whose number equals the object's
	// recorded version count.
	LatestOnly bool

	// ExcludeWorkspaces are skipped entirely; they contribute nothing to
	// any accumulator.
	ExcludeWorkspaces map[int64]bool

	// IncludeTypes gates the per-type accumulator.
	IncludeTypes *usagecfg.TypeSet

	// ListTypes gates the object listing accumulator.
	ListTypes *usagecfg.TypeSet
}

// Result holds the accumulators of one completed pass.
type Result struct {
	Users      UserTotals
	Types      TypeTotals
	Months     MonthTotals
	Workspaces WorkspaceTotals
	Objects    ObjectList
}

// NewResult returns an empty result with every accumulator allocated.
func NewResult() *Result {
	return &Result{
		Users:      make(UserTotals),
		Types:      make(TypeTotals),
		Months:     make(MonthTotals),
		Workspaces: make(WorkspaceTotals),
		Objects:    make(ObjectList),
	}
}

// Run executes the aggregation pass: one workspace at a time, one page of
// the object-id space at a time, strictly sequential. Any store failure
// aborts the run; the job is re-run from scratch rather than resumed.
func Run(ctx context.Context, store wsdb.Store, index wsindex.Index, cfg Config) (*Result, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	res := NewResult()
	ids := index.IDs()
	pt := logging.NewProgressTracker(int64(len(ids)))
	start := time.Now()

	for _, wsID := range ids {
		ent := index[wsID]
		log := logctx.FromContext(ctx).With().Int64("ws", wsID).Logger()

		if cfg.ExcludeWorkspaces[wsID] {
			log.Info().Msg("workspace in exclude list, skipping")
			pt.RecordSkip()
			continue
		}

		done, skipped, total := pt.Progress()
		logging.WorkspaceStarted(log, ent.NumObjects, done+skipped, total)

		wsStart := time.Now()
		versions, bytes, err := scanWorkspace(ctx, store, ent, cfg, res, log)
		if err != nil {
			return nil, err
		}

		pt.RecordCompletion(time.Since(wsStart))
		logging.WorkspaceComplete(log, versions, bytes, time.Since(wsStart), pt)
	}

	logging.PhaseComplete(logctx.FromContext(ctx), "aggregate", time.Since(start))
	return res, nil
}

// scanWorkspace pages through one workspace's object-id space and folds
// every qualifying version into the accumulators.
func scanWorkspace(ctx context.Context, store wsdb.Store, ent *wsindex.Entry, cfg Config, res *Result, log zerolog.Logger) (versions, bytes int64, err error) {
	vis := Private
	if ent.Public {
		vis = Public
	}

	for start := int64(0); start < ent.NumObjects; start += cfg.PageSize {
		end := start + cfg.PageSize
		pageStart := time.Now()

		objs, err := store.ObjectRange(ctx, ent.ID, start, end)
		if err != nil {
			return 0, 0, fmt.Errorf("workspace %d objects (%d,%d]: %w", ent.ID, start, end, err)
		}
		if len(objs) == 0 {
			continue
		}
		byID := make(map[int64]wsdb.Object, len(objs))
		for _, o := range objs {
			byID[o.ID] = o
		}

		vers, err := store.VersionRange(ctx, ent.ID, start, end)
		if err != nil {
			return 0, 0, fmt.Errorf("workspace %d versions (%d,%d]: %w", ent.ID, start, end, err)
		}

		counted := 0
		for _, v := range vers {
			obj, ok := byID[v.ObjectID]
			if !ok {
				// object created in the workspace after the page's object
				// snapshot was taken; skip, this is an accepted race
				continue
			}
			if cfg.LatestOnly && v.Version != obj.NumVersions {
				continue
			}

			del := Active
			if obj.Deleted {
				del = Deleted
			}

			res.Users.Add(ent.Owner, vis, del, v.Size)
			res.Workspaces.Add(ent.ID, del, v.Size)

			bucket, err := MonthBucket(v.RecordID)
			if err != nil {
				return 0, 0, fmt.Errorf("workspace %d object %d ver %d: %w", ent.ID, v.ObjectID, v.Version, err)
			}
			res.Months.Add(bucket, vis, del, v.Size)

			tp := TypePrefix(v.Type)
			if cfg.IncludeTypes.Contains(tp) {
				res.Types.Add(ent.Owner, tp, vis, del, v.Size)
			}
			if cfg.ListTypes.Contains(tp) {
				res.Objects.Observe(ent.ID, obj, v)
			}

			counted++
			versions++
			bytes += v.Size
		}

		logging.PageComplete(log, start, end, len(objs), len(vers), counted, time.Since(pageStart))
	}

	return versions, bytes, nil
}
