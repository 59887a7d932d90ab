// Package report assembles and writes the aggregation artifacts.
package report

import (
	"strconv"
	"time"

	"github.com/kbase/workspace-usage/pkg/aggregate"
	"github.com/kbase/workspace-usage/pkg/wsindex"
)

// Output file names.
const (
	UserFile          = "user_data.json"
	WorkspaceFile     = "ws_data.json"
	ObjectFile        = "ws_object_list.json"
	MonthFile         = "monthly_summary.json"
	ObjectParquetFile = "ws_object_list.parquet"
)

// UserEntry is one user's totals in user_data.json, with the per-type
// breakdown folded in.
type UserEntry struct {
	aggregate.VisDelTable
	Types map[string]*aggregate.VisDelTable `json:"types,omitempty"`
}

// BuildUserReport merges the user totals with the per-type totals.
func BuildUserReport(users aggregate.UserTotals, types aggregate.TypeTotals) map[string]UserEntry {
	out := make(map[string]UserEntry, len(users))
	for user, totals := range users {
		out[user] = UserEntry{
			VisDelTable: *totals,
			Types:       types[user],
		}
	}
	return out
}

// WorkspaceEntry is one workspace row in ws_data.json. The container's
// transient object-count field is intentionally absent.
type WorkspaceEntry struct {
	Owner   string            `json:"owner"`
	Name    string            `json:"name"`
	Pub     string            `json:"pub"`
	Shared  int               `json:"shd"`
	Perms   map[string]string `json:"perms,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
	Deleted aggregate.Tally   `json:"del"`
	Active  aggregate.Tally   `json:"std"`
}

// BuildWorkspaceReport merges the workspace index with the per-workspace
// tallies. Workspaces that contributed nothing (excluded or empty) still
// appear, with zero tallies.
func BuildWorkspaceReport(index wsindex.Index, totals aggregate.WorkspaceTotals) map[string]WorkspaceEntry {
	out := make(map[string]WorkspaceEntry, len(index))
	for id, ent := range index {
		vis := aggregate.Private
		if ent.Public {
			vis = aggregate.Public
		}
		row := WorkspaceEntry{
			Owner:  ent.Owner,
			Name:   ent.Name,
			Pub:    vis.String(),
			Shared: ent.SharedWith(),
			Perms:  ent.SharedPerms,
			Meta:   ent.Meta,
		}
		if t := totals[id]; t != nil {
			row.Deleted = t.Deleted
			row.Active = t.Active
		}
		out[strconv.FormatInt(id, 10)] = row
	}
	return out
}

// Fixed descriptive strings for the monthly summary envelope.
const (
	envelopeAuthor  = "ws-usage"
	envelopeComment = "Monthly workspace object and byte totals, split by public/private and deleted/active."
	envelopeNote    = "Month buckets are derived from the timestamp embedded in each version record id, not from the stored save date."
)

// EnvelopeAbout is the fixed descriptive block of the monthly summary.
type EnvelopeAbout struct {
	Author    string `json:"author" bson:"author"`
	Comment   string `json:"comment" bson:"comment"`
	Note      string `json:"note" bson:"note"`
	Generated string `json:"generated" bson:"generated"`
}

// MonthlyEnvelope wraps the by-month totals with descriptive metadata. The
// same document is written to disk and, optionally, published to the target
// store.
type MonthlyEnvelope struct {
	About  EnvelopeAbout                     `json:"about" bson:"about"`
	Months map[string]*aggregate.VisDelTable `json:"months" bson:"months"`
}

// NewMonthlyEnvelope wraps the month totals for output.
func NewMonthlyEnvelope(months aggregate.MonthTotals) *MonthlyEnvelope {
	return &MonthlyEnvelope{
		About: EnvelopeAbout{
			Author:    envelopeAuthor,
			Comment:   envelopeComment,
			Note:      envelopeNote,
			Generated: time.Now().UTC().Format(time.RFC3339),
		},
		Months: months,
	}
}
