// Package wsdb provides read access to the workspace document store.
//
// The reported figures are not physical disk usage: the store deduplicates
// identical documents and copies are by reference, and both effects are
// deliberately ignored here. Only actual object version data is counted.
package wsdb

import "time"

// AllUsers is the wildcard principal. A workspace with an access-control
// grant to it is public.
const AllUsers = "*"

// Workspace is a workspace container record.
type Workspace struct {
	ID         int64             `bson:"ws"`
	Owner      string            `bson:"owner"`
	Name       string            `bson:"name"`
	Deleted    bool              `bson:"del"`
	NumObjects int64             `bson:"numObj"`
	Meta       map[string]string `bson:"meta,omitempty"`
}

// ACLGrant is one access-control entry for a workspace.
type ACLGrant struct {
	WorkspaceID int64  `bson:"id"`
	User        string `bson:"user"`
	Perm        int    `bson:"perm"`
}

// Object is an object record within a workspace. IDs are unique per
// workspace.
type Object struct {
	ID          int64  `bson:"id"`
	Name        string `bson:"name"`
	Deleted     bool   `bson:"del"`
	NumVersions int64  `bson:"numver"`
}

// Version is one saved version of an object.
type Version struct {
	ObjectID int64             `bson:"id"`
	Version  int64             `bson:"ver"`
	Size     int64             `bson:"size"`
	Type     string            `bson:"type"`
	SavedBy  string            `bson:"savedby"`
	SavedAt  time.Time         `bson:"savedate"`
	Meta     map[string]string `bson:"meta,omitempty"`

	// RecordID is the hex form of the record's internal identifier. Its
	// leading 8 characters encode the record creation time as a big-endian
	// Unix timestamp, which is where month buckets come from.
	RecordID string `bson:"-"`
}

// Metadata keys carried through to reports: the notebook-context flag and
// the two narrative naming fields. Everything else is dropped silently.
var includedMetaKeys = map[string]bool{
	"narrative":           true,
	"narrative_nice_name": true,
	"is_temporary":        true,
}

// RestrictMeta returns only the allow-listed metadata entries, or nil when
// none survive.
func RestrictMeta(meta map[string]string) map[string]string {
	var out map[string]string
	for k, v := range meta {
		if !includedMetaKeys[k] {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}
