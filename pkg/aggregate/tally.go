// Package aggregate implements the single-pass usage aggregation over
// workspace object versions.
//
// The accumulators are fixed-depth typed tables rather than nested maps of
// maps: every (visibility, deletion-state) cell exists from the moment its
// parent entry is created, so zero initialization is explicit and the JSON
// shape is stable.
package aggregate

// Visibility buckets statistics by whether the owning workspace is
// world-readable.
type Visibility int

const (
	Private Visibility = iota
	Public
)

// String returns the report key for the bucket.
func (v Visibility) String() string {
	if v == Public {
		return "pub"
	}
	return "priv"
}

// DelState buckets statistics by the owning object's deletion flag.
type DelState int

const (
	Active DelState = iota
	Deleted
)

// String returns the report key for the bucket.
func (d DelState) String() string {
	if d == Deleted {
		return "del"
	}
	return "std"
}

// Tally is a count and byte-sum pair. It is only ever incremented.
type Tally struct {
	Count int64 `json:"cnt" bson:"cnt"`
	Bytes int64 `json:"byte" bson:"byte"`
}

func (t *Tally) add(count, bytes int64) {
	t.Count += count
	t.Bytes += bytes
}

// DelTable splits a tally by deletion state.
type DelTable struct {
	Deleted Tally `json:"del" bson:"del"`
	Active  Tally `json:"std" bson:"std"`
}

// Add folds count and bytes into the deletion-state cell.
func (t *DelTable) Add(del DelState, count, bytes int64) {
	if del == Deleted {
		t.Deleted.add(count, bytes)
	} else {
		t.Active.add(count, bytes)
	}
}

// Get returns the tally for the deletion-state cell.
func (t *DelTable) Get(del DelState) Tally {
	if del == Deleted {
		return t.Deleted
	}
	return t.Active
}

// VisDelTable splits tallies by visibility, then deletion state.
type VisDelTable struct {
	Public  DelTable `json:"pub" bson:"pub"`
	Private DelTable `json:"priv" bson:"priv"`
}

// Add folds count and bytes into the (visibility, deletion-state) cell.
func (t *VisDelTable) Add(vis Visibility, del DelState, count, bytes int64) {
	if vis == Public {
		t.Public.Add(del, count, bytes)
	} else {
		t.Private.Add(del, count, bytes)
	}
}

// Get returns the tally for the (visibility, deletion-state) cell.
func (t *VisDelTable) Get(vis Visibility, del DelState) Tally {
	if vis == Public {
		return t.Public.Get(del)
	}
	return t.Private.Get(del)
}
