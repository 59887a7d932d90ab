package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbase/workspace-usage/pkg/wsdb"
)

// UserTotals maps owning user to visibility/deletion tallies.
type UserTotals map[string]*VisDelTable

// Add counts one version of the given size for the user.
func (u UserTotals) Add(user string, vis Visibility, del DelState, bytes int64) {
	t := u[user]
	if t == nil {
		t = &VisDelTable{}
		u[user] = t
	}
	t.Add(vis, del, 1, bytes)
}

// TypeTotals maps owning user to type-module prefix to tallies.
type TypeTotals map[string]map[string]*VisDelTable

// Add counts one version of the given size for the user and type prefix.
func (tt TypeTotals) Add(user, typePrefix string, vis Visibility, del DelState, bytes int64) {
	byType := tt[user]
	if byType == nil {
		byType = make(map[string]*VisDelTable)
		tt[user] = byType
	}
	t := byType[typePrefix]
	if t == nil {
		t = &VisDelTable{}
		byType[typePrefix] = t
	}
	t.Add(vis, del, 1, bytes)
}

// MonthTotals maps YYYYMM month buckets to tallies.
type MonthTotals map[string]*VisDelTable

// Add counts one version of the given size in the month bucket.
func (m MonthTotals) Add(bucket string, vis Visibility, del DelState, bytes int64) {
	t := m[bucket]
	if t == nil {
		t = &VisDelTable{}
		m[bucket] = t
	}
	t.Add(vis, del, 1, bytes)
}

// WorkspaceTotals maps workspace id to deletion-state tallies. Visibility
// is a property of the whole workspace, so it is not split out here.
type WorkspaceTotals map[int64]*DelTable

// Add counts one version of the given size for the workspace.
func (w WorkspaceTotals) Add(wsID int64, del DelState, bytes int64) {
	t := w[wsID]
	if t == nil {
		t = &DelTable{}
		w[wsID] = t
	}
	t.Add(del, 1, bytes)
}

// ObjectEntry is the snapshot of the latest observed version of a listed
// object.
type ObjectEntry struct {
	Deleted  bool              `json:"del"`
	Name     string            `json:"name"`
	SavedBy  string            `json:"savedby"`
	Version  int64             `json:"ver"`
	Type     string            `json:"type"`
	SaveDate string            `json:"savedate"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// ObjectList maps "ws.<ws>.obj.<id>" keys to the latest version snapshot.
type ObjectList map[string]ObjectEntry

// ObjectKey builds the composite listing key for an object.
func ObjectKey(wsID, objID int64) string {
	return fmt.Sprintf("ws.%d.obj.%d", wsID, objID)
}

// Observe records a version for the listing. When several versions of the
// same object are seen, the highest version number wins, regardless of
// processing order.
func (l ObjectList) Observe(wsID int64, obj wsdb.Object, v wsdb.Version) {
	key := ObjectKey(wsID, v.ObjectID)
	if cur, ok := l[key]; ok && cur.Version > v.Version {
		return
	}
	l[key] = ObjectEntry{
		Deleted:  obj.Deleted,
		Name:     obj.Name,
		SavedBy:  v.SavedBy,
		Version:  v.Version,
		Type:     v.Type,
		SaveDate: v.SavedAt.UTC().Format(time.RFC3339),
		Meta:     wsdb.RestrictMeta(v.Meta),
	}
}

// TypePrefix returns the module part of a "<Module>-<Name>" type string.
func TypePrefix(t string) string {
	if i := strings.Index(t, "-"); i >= 0 {
		return t[:i]
	}
	return t
}
