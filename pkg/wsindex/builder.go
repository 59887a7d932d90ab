// Package wsindex builds the in-memory workspace index the aggregation pass
// joins against.
package wsindex

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kbase/workspace-usage/internal/logctx"
	"github.com/kbase/workspace-usage/pkg/logging"
	"github.com/kbase/workspace-usage/pkg/wsdb"
)

// Entry describes one workspace container.
type Entry struct {
	ID      int64
	Owner   string
	Name    string
	Deleted bool

	// Public is true iff an ACL entry grants access to the wildcard
	// principal.
	Public bool

	// NumObjects is the container's declared object count. It bounds the
	// page loop and is stripped from the final output.
	NumObjects int64

	// SharedPerms maps users the workspace is shared with to their
	// permission label. The owner and the wildcard principal are excluded.
	SharedPerms map[string]string

	// Meta holds the allow-listed workspace metadata.
	Meta map[string]string
}

// SharedWith returns the count of users the workspace is shared with,
// excluding the owner and the wildcard principal.
func (e *Entry) SharedWith() int {
	return len(e.SharedPerms)
}

// Index maps workspace id to its entry.
type Index map[int64]*Entry

// IDs returns the workspace ids in ascending order.
func (ix Index) IDs() []int64 {
	ids := make([]int64, 0, len(ix))
	for id := range ix {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Build reads every workspace container and ACL grant and assembles the
// index. Store failures are fatal; there is nothing to salvage from a
// partial index.
func Build(ctx context.Context, store wsdb.Store) (Index, error) {
	log := logctx.FromContext(ctx)
	start := time.Now()

	wss, err := store.Workspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	ix := make(Index, len(wss))
	for _, ws := range wss {
		ix[ws.ID] = &Entry{
			ID:          ws.ID,
			Owner:       ws.Owner,
			Name:        ws.Name,
			Deleted:     ws.Deleted,
			NumObjects:  ws.NumObjects,
			SharedPerms: make(map[string]string),
			Meta:        wsdb.RestrictMeta(ws.Meta),
		}
	}

	grants, err := store.ACLGrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ACL grants: %w", err)
	}
	for _, g := range grants {
		ent := ix[g.WorkspaceID]
		if ent == nil {
			// grant for a workspace created after the container listing
			continue
		}
		switch g.User {
		case wsdb.AllUsers:
			ent.Public = true
		case ent.Owner:
			// owner grants don't count as sharing
		default:
			ent.SharedPerms[g.User] = PermLabel(g.Perm)
		}
	}

	log.Info().
		Int("workspaces", len(ix)).
		Int("acl_grants", len(grants)).
		Msg("workspace index built")
	logging.PhaseComplete(log, "index", time.Since(start))

	return ix, nil
}

// PermLabel maps a numeric ACL permission to the workspace convention
// letter. Unknown levels keep their integer form.
func PermLabel(perm int) string {
	switch perm {
	case 0:
		return "n"
	case 1:
		return "r"
	case 2:
		return "w"
	case 3, 4:
		return "a"
	default:
		return strconv.Itoa(perm)
	}
}
