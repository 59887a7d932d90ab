package wsdb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names in the workspace database.
const (
	colWorkspaces = "workspaces"
	colACLs       = "workspaceACLs"
	colObjects    = "workspaceObjects"
	colVersions   = "workspaceObjVersions"

	// MonthlyCollection holds published monthly summaries in the target
	// database.
	MonthlyCollection = "workspaceMonthlyUsage"
)

// ConnectConfig is the connection profile for one MongoDB instance.
type ConnectConfig struct {
	Host string
	Port int
	DB   string
	User string
	Pwd  string
}

// MongoStore implements Store against a live workspace MongoDB.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a connection to the store. Reads prefer secondaries so a
// long scan does not load the primary.
func Connect(ctx context.Context, cfg ConnectConfig) (*MongoStore, error) {
	opts := options.Client().
		SetHosts([]string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)}).
		SetReadPreference(readpref.SecondaryPreferred())
	if cfg.User != "" {
		opts = opts.SetAuth(options.Credential{
			AuthSource: cfg.DB,
			Username:   cfg.User,
			Password:   cfg.Pwd,
		})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &MongoStore{client: client, db: client.Database(cfg.DB)}, nil
}

// Close disconnects from the store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Workspaces returns every workspace container record.
func (s *MongoStore) Workspaces(ctx context.Context) ([]Workspace, error) {
	cur, err := s.db.Collection(colWorkspaces).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{
			"ws": 1, "owner": 1, "name": 1, "del": 1, "numObj": 1, "meta": 1,
		}))
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	var out []Workspace
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("read workspaces: %w", err)
	}
	return out, nil
}

// ACLGrants returns every access-control entry in the store.
func (s *MongoStore) ACLGrants(ctx context.Context) ([]ACLGrant, error) {
	cur, err := s.db.Collection(colACLs).Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"id": 1, "user": 1, "perm": 1}))
	if err != nil {
		return nil, fmt.Errorf("query workspace ACLs: %w", err)
	}
	var out []ACLGrant
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("read workspace ACLs: %w", err)
	}
	return out, nil
}

// ObjectRange returns the objects of workspace wsID with start < id <= end.
func (s *MongoStore) ObjectRange(ctx context.Context, wsID, start, end int64) ([]Object, error) {
	cur, err := s.db.Collection(colObjects).Find(ctx,
		bson.M{"ws": wsID, "id": bson.M{"$gt": start, "$lte": end}},
		options.Find().SetProjection(bson.M{
			"id": 1, "name": 1, "del": 1, "numver": 1,
		}))
	if err != nil {
		return nil, fmt.Errorf("query objects for workspace %d (%d,%d]: %w", wsID, start, end, err)
	}
	var out []Object
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("read objects for workspace %d (%d,%d]: %w", wsID, start, end, err)
	}
	return out, nil
}

// versionDoc is the raw version record; the internal id is converted to its
// hex form on the way out.
type versionDoc struct {
	RecordID primitive.ObjectID `bson:"_id"`
	ObjectID int64              `bson:"id"`
	Version  int64              `bson:"ver"`
	Size     int64              `bson:"size"`
	Type     string             `bson:"type"`
	SavedBy  string             `bson:"savedby"`
	SavedAt  time.Time          `bson:"savedate"`
	Meta     map[string]string  `bson:"meta,omitempty"`
}

// VersionRange returns the versions of workspace wsID whose object id falls
// in (start, end].
func (s *MongoStore) VersionRange(ctx context.Context, wsID, start, end int64) ([]Version, error) {
	cur, err := s.db.Collection(colVersions).Find(ctx,
		bson.M{"ws": wsID, "id": bson.M{"$gt": start, "$lte": end}},
		options.Find().SetProjection(bson.M{
			"id": 1, "ver": 1, "size": 1, "type": 1,
			"savedby": 1, "savedate": 1, "meta": 1,
		}))
	if err != nil {
		return nil, fmt.Errorf("query versions for workspace %d (%d,%d]: %w", wsID, start, end, err)
	}
	defer cur.Close(ctx)

	var out []Version
	for cur.Next(ctx) {
		var d versionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode version for workspace %d: %w", wsID, err)
		}
		out = append(out, Version{
			ObjectID: d.ObjectID,
			Version:  d.Version,
			Size:     d.Size,
			Type:     d.Type,
			SavedBy:  d.SavedBy,
			SavedAt:  d.SavedAt,
			Meta:     d.Meta,
			RecordID: d.RecordID.Hex(),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("read versions for workspace %d (%d,%d]: %w", wsID, start, end, err)
	}
	return out, nil
}

// InsertMonthlySummary stores a monthly summary document, for publication
// into the target store.
func (s *MongoStore) InsertMonthlySummary(ctx context.Context, doc interface{}) error {
	if _, err := s.db.Collection(MonthlyCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert monthly summary: %w", err)
	}
	return nil
}
