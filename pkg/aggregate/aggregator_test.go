package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/kbase/workspace-usage/pkg/usagecfg"
	"github.com/kbase/workspace-usage/pkg/wsdb"
	"github.com/kbase/workspace-usage/pkg/wsindex"
)

// fakeStore serves canned records and records the ranges queried.
type fakeStore struct {
	objects  map[int64][]wsdb.Object
	versions map[int64][]wsdb.Version

	objectCalls [][3]int64
}

func (f *fakeStore) Workspaces(ctx context.Context) ([]wsdb.Workspace, error) { return nil, nil }
func (f *fakeStore) ACLGrants(ctx context.Context) ([]wsdb.ACLGrant, error)   { return nil, nil }

func (f *fakeStore) ObjectRange(ctx context.Context, wsID, start, end int64) ([]wsdb.Object, error) {
	f.objectCalls = append(f.objectCalls, [3]int64{wsID, start, end})
	var out []wsdb.Object
	for _, o := range f.objects[wsID] {
		if o.ID > start && o.ID <= end {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) VersionRange(ctx context.Context, wsID, start, end int64) ([]wsdb.Version, error) {
	var out []wsdb.Version
	for _, v := range f.versions[wsID] {
		if v.ObjectID > start && v.ObjectID <= end {
			out = append(out, v)
		}
	}
	return out, nil
}

// april2014 is a record id prefix for a version created 2014-04-30.
const april2014 = "5360c040"

func ver(objID, version, size int64, typ, savedBy string) wsdb.Version {
	return wsdb.Version{
		ObjectID: objID,
		Version:  version,
		Size:     size,
		Type:     typ,
		SavedBy:  savedBy,
		SavedAt:  time.Date(2014, 4, 30, 12, 0, 0, 0, time.UTC),
		RecordID: april2014 + "0000000000000000",
	}
}

func singleEntryIndex(wsID int64, owner string, public bool, numObjects int64) wsindex.Index {
	return wsindex.Index{
		wsID: {
			ID:          wsID,
			Owner:       owner,
			Name:        "test",
			Public:      public,
			NumObjects:  numObjects,
			SharedPerms: map[string]string{},
		},
	}
}

func TestRunSingleVersion(t *testing.T) {
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {{ID: 1, Name: "genome1", NumVersions: 1}},
		},
		versions: map[int64][]wsdb.Version{
			1: {ver(1, 1, 100, "KBaseGenomes-Genome", "alice")},
		},
	}
	index := singleEntryIndex(1, "alice", true, 1)

	res, err := Run(context.Background(), store, index, Config{
		IncludeTypes: usagecfg.NewTypeSet([]string{"KBaseGenomes"}),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := res.Users["alice"].Get(Public, Active); got != (Tally{Count: 1, Bytes: 100}) {
		t.Errorf("user totals alice.pub.std = %+v, want {1 100}", got)
	}
	if got := res.Types["alice"]["KBaseGenomes"].Get(Public, Active); got != (Tally{Count: 1, Bytes: 100}) {
		t.Errorf("type totals alice.KBaseGenomes.pub.std = %+v, want {1 100}", got)
	}
	if got := res.Workspaces[1].Get(Active); got != (Tally{Count: 1, Bytes: 100}) {
		t.Errorf("workspace totals = %+v, want {1 100}", got)
	}
	if got := res.Months["201404"].Get(Public, Active); got != (Tally{Count: 1, Bytes: 100}) {
		t.Errorf("month totals 201404.pub.std = %+v, want {1 100}", got)
	}
	if len(res.Objects) != 0 {
		t.Errorf("object listing should be empty without list types, got %v", res.Objects)
	}
}

func TestRunTypeGating(t *testing.T) {
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {{ID: 1, Name: "o1", NumVersions: 1}, {ID: 2, Name: "o2", NumVersions: 1}},
		},
		versions: map[int64][]wsdb.Version{
			1: {
				ver(1, 1, 10, "KBaseGenomes-Genome", "alice"),
				ver(2, 1, 20, "KBaseTrees-Tree", "alice"),
			},
		},
	}
	index := singleEntryIndex(1, "alice", false, 2)

	res, err := Run(context.Background(), store, index, Config{
		IncludeTypes: usagecfg.NewTypeSet([]string{"KBaseGenomes"}),
		ListTypes:    usagecfg.NewTypeSet([]string{"KBaseTrees"}),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Both versions count toward user totals.
	if got := res.Users["alice"].Get(Private, Active); got != (Tally{Count: 2, Bytes: 30}) {
		t.Errorf("user totals = %+v, want {2 30}", got)
	}
	// Only the included type is broken out.
	if _, ok := res.Types["alice"]["KBaseTrees"]; ok {
		t.Error("KBaseTrees should not appear in type totals")
	}
	if got := res.Types["alice"]["KBaseGenomes"].Get(Private, Active); got != (Tally{Count: 1, Bytes: 10}) {
		t.Errorf("type totals = %+v, want {1 10}", got)
	}
	// Only the listed type appears in the object listing.
	if _, ok := res.Objects[ObjectKey(1, 2)]; !ok {
		t.Error("listed object missing")
	}
	if _, ok := res.Objects[ObjectKey(1, 1)]; ok {
		t.Error("non-listed object present")
	}
}

func TestRunLatestOnly(t *testing.T) {
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {{ID: 1, Name: "o1", NumVersions: 3}},
		},
		versions: map[int64][]wsdb.Version{
			1: {
				ver(1, 1, 10, "KBaseGenomes-Genome", "alice"),
				ver(1, 2, 20, "KBaseGenomes-Genome", "alice"),
				ver(1, 3, 40, "KBaseGenomes-Genome", "alice"),
			},
		},
	}
	index := singleEntryIndex(1, "alice", true, 1)

	res, err := Run(context.Background(), store, index, Config{LatestOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	// Exactly one version per object, the one matching the recorded count.
	if got := res.Users["alice"].Get(Public, Active); got != (Tally{Count: 1, Bytes: 40}) {
		t.Errorf("latest-only totals = %+v, want {1 40}", got)
	}

	res, err = Run(context.Background(), store, index, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Users["alice"].Get(Public, Active); got != (Tally{Count: 3, Bytes: 70}) {
		t.Errorf("all-versions totals = %+v, want {3 70}", got)
	}
}

func TestRunExcludedWorkspace(t *testing.T) {
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {{ID: 1, Name: "o1", NumVersions: 1}},
		},
		versions: map[int64][]wsdb.Version{
			1: {ver(1, 1, 10, "KBaseGenomes-Genome", "alice")},
		},
	}
	index := singleEntryIndex(1, "alice", true, 1)

	res, err := Run(context.Background(), store, index, Config{
		ExcludeWorkspaces: map[int64]bool{1: true},
		IncludeTypes:      usagecfg.NewTypeSet([]string{"*"}),
		ListTypes:         usagecfg.NewTypeSet([]string{"*"}),
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Users) != 0 || len(res.Types) != 0 || len(res.Months) != 0 ||
		len(res.Workspaces) != 0 || len(res.Objects) != 0 {
		t.Errorf("excluded workspace contributed entries: %+v", res)
	}
	if len(store.objectCalls) != 0 {
		t.Errorf("excluded workspace was queried: %v", store.objectCalls)
	}
}

func TestRunSkipsRacedObjects(t *testing.T) {
	// A version whose object is absent from the page snapshot belongs to an
	// object created mid-scan; it is skipped without error.
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {{ID: 1, Name: "o1", NumVersions: 1}},
		},
		versions: map[int64][]wsdb.Version{
			1: {
				ver(1, 1, 10, "KBaseGenomes-Genome", "alice"),
				ver(2, 1, 999, "KBaseGenomes-Genome", "alice"),
			},
		},
	}
	index := singleEntryIndex(1, "alice", true, 2)

	res, err := Run(context.Background(), store, index, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Users["alice"].Get(Public, Active); got != (Tally{Count: 1, Bytes: 10}) {
		t.Errorf("totals = %+v, want {1 10}: raced version must not count", got)
	}
}

func TestRunDeletionStateFromObject(t *testing.T) {
	// The object's deleted flag applies to every one of its versions.
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {
				{ID: 1, Name: "live", NumVersions: 1},
				{ID: 2, Name: "gone", Deleted: true, NumVersions: 1},
			},
		},
		versions: map[int64][]wsdb.Version{
			1: {
				ver(1, 1, 10, "KBaseGenomes-Genome", "alice"),
				ver(2, 1, 20, "KBaseGenomes-Genome", "alice"),
			},
		},
	}
	index := singleEntryIndex(1, "alice", false, 2)

	res, err := Run(context.Background(), store, index, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Users["alice"].Get(Private, Active); got != (Tally{Count: 1, Bytes: 10}) {
		t.Errorf("active totals = %+v, want {1 10}", got)
	}
	if got := res.Users["alice"].Get(Private, Deleted); got != (Tally{Count: 1, Bytes: 20}) {
		t.Errorf("deleted totals = %+v, want {1 20}", got)
	}
}

func TestRunPagesByIDRange(t *testing.T) {
	store := &fakeStore{
		objects: map[int64][]wsdb.Object{
			1: {
				{ID: 1, Name: "first", NumVersions: 1},
				{ID: 10001, Name: "second", NumVersions: 1},
			},
		},
		versions: map[int64][]wsdb.Version{
			1: {
				ver(1, 1, 10, "KBaseGenomes-Genome", "alice"),
				ver(10001, 1, 20, "KBaseGenomes-Genome", "alice"),
			},
		},
	}
	index := singleEntryIndex(1, "alice", true, 15000)

	res, err := Run(context.Background(), store, index, Config{})
	if err != nil {
		t.Fatal(err)
	}

	wantCalls := [][3]int64{{1, 0, 10000}, {1, 10000, 20000}}
	if len(store.objectCalls) != len(wantCalls) {
		t.Fatalf("object range calls = %v, want %v", store.objectCalls, wantCalls)
	}
	for i, want := range wantCalls {
		if store.objectCalls[i] != want {
			t.Errorf("call %d = %v, want %v", i, store.objectCalls[i], want)
		}
	}

	if got := res.Users["alice"].Get(Public, Active); got != (Tally{Count: 2, Bytes: 30}) {
		t.Errorf("totals across pages = %+v, want {2 30}", got)
	}
}

func TestObjectListKeepsMaxVersion(t *testing.T) {
	obj := wsdb.Object{ID: 7, Name: "obj7", NumVersions: 3}
	list := make(ObjectList)

	// Observed out of order: highest version wins regardless.
	list.Observe(3, obj, ver(7, 2, 10, "KBaseTrees-Tree", "alice"))
	list.Observe(3, obj, ver(7, 3, 10, "KBaseTrees-Tree", "bob"))
	list.Observe(3, obj, ver(7, 1, 10, "KBaseTrees-Tree", "carol"))

	e, ok := list[ObjectKey(3, 7)]
	if !ok {
		t.Fatal("listing entry missing")
	}
	if e.Version != 3 || e.SavedBy != "bob" {
		t.Errorf("listing kept version %d by %s, want 3 by bob", e.Version, e.SavedBy)
	}
	if e.Name != "obj7" {
		t.Errorf("listing name = %q", e.Name)
	}
}
