// Package mongo persists execution history rows and per-user execution
// counters in MongoDB.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/history"
)

const (
	defaultExecutionsCollection = "workflow_executions"
	defaultUsersCollection      = "users"
	defaultOpTimeout            = 5 * time.Second
)

// Store implements history.Store against MongoDB.
type Store struct {
	mongo      *mongodriver.Client
	executions collection
	users      collection
	timeout    time.Duration
}

// Options configures New.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Executions string
	Users      string
	Timeout    time.Duration
}

// New validates the options, ensures indexes and returns the store.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	if opts.Executions == "" {
		opts.Executions = defaultExecutionsCollection
	}
	if opts.Users == "" {
		opts.Users = defaultUsersCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultOpTimeout
	}
	db := opts.Client.Database(opts.Database)
	s := &Store{
		mongo:      opts.Client,
		executions: mongoCollection{coll: db.Collection(opts.Executions)},
		users:      mongoCollection{coll: db.Collection(opts.Users)},
		timeout:    opts.Timeout,
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	if err := ensureIndexes(ctx, s.executions); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping reports storage reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.mongo.Ping(ctx, readpref.Primary())
}

// SaveExecution implements history.Store.
func (s *Store) SaveExecution(ctx context.Context, rec history.Record) error {
	if rec.UserID == "" {
		return errors.New("user id is required")
	}
	if rec.ExecutedAt.IsZero() {
		rec.ExecutedAt = time.Now().UTC()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err := s.executions.InsertOne(ctx, fromRecord(rec))
	return err
}

// IncrementExecutionCount implements history.Store.
func (s *Store) IncrementExecutionCount(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	filter := bson.M{"user_id": userID}
	update := bson.M{"$inc": bson.M{"profile.execution_count": 1}}
	_, err := s.users.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

type executionDocument struct {
	UserID     string            `bson:"user_id"`
	WorkflowID string            `bson:"workflow_id,omitempty"`
	Nodes      []workflow.Node   `bson:"nodes"`
	Edges      []workflow.Edge   `bson:"edges"`
	Result     map[string]string `bson:"result"`
	ExecutedAt time.Time         `bson:"executed_at"`
	Status     string            `bson:"status"`
}

func fromRecord(rec history.Record) executionDocument {
	return executionDocument{
		UserID:     rec.UserID,
		WorkflowID: rec.WorkflowID,
		Nodes:      rec.Nodes,
		Edges:      rec.Edges,
		Result:     rec.Result,
		ExecutedAt: rec.ExecutedAt.UTC(),
		Status:     rec.Status,
	}
}

func ensureIndexes(ctx context.Context, coll collection) error {
	index := mongodriver.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "executed_at", Value: -1}},
	}
	_, err := coll.Indexes().CreateOne(ctx, index)
	return err
}

// collection wraps the driver collection so the store is testable
// without a server.
type collection interface {
	InsertOne(ctx context.Context, doc any, opts ...*options.InsertOneOptions) (*mongodriver.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error)
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) InsertOne(ctx context.Context, doc any, opts ...*options.InsertOneOptions) (*mongodriver.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, doc, opts...)
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter any, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...*options.CreateIndexesOptions) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
