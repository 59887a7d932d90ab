package wsdb

import "context"

// Store is the read-only view of the workspace store the report needs.
// Implementations return records as stored; all joining and filtering
// happens in the aggregation layer.
type Store interface {
	// Workspaces returns every workspace container record.
	Workspaces(ctx context.Context) ([]Workspace, error)

	// ACLGrants returns every access-control entry in the store.
	ACLGrants(ctx context.Context) ([]ACLGrant, error)

	// ObjectRange returns the objects of workspace wsID whose id i
	// satisfies start < i <= end.
	ObjectRange(ctx context.Context, wsID, start, end int64) ([]Object, error)

	// VersionRange returns the versions of workspace wsID whose object id
	// i satisfies start < i <= end.
	VersionRange(ctx context.Context, wsID, start, end int64) ([]Version, error)
}
