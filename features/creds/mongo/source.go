// Package mongo reads per-user encrypted credential maps from the
// users collection.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultUsersCollection = "users"
	defaultOpTimeout       = 5 * time.Second
)

// Source implements creds.Source against MongoDB.
type Source struct {
	users   collection
	timeout time.Duration
}

// Options configures New.
type Options struct {
	Client   *mongodriver.Client
	Database string
	Users    string
	Timeout  time.Duration
}

// New validates the options and returns the source.
func New(opts Options) (*Source, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	if opts.Users == "" {
		opts.Users = defaultUsersCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultOpTimeout
	}
	return &Source{
		users:   mongoCollection{coll: opts.Client.Database(opts.Database).Collection(opts.Users)},
		timeout: opts.Timeout,
	}, nil
}

// Keys implements creds.Source. A missing user yields an empty map so
// the broker falls through to the environment.
func (s *Source) Keys(ctx context.Context, userID string) (map[string]string, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc userDocument
	err := s.users.FindOne(ctx, bson.M{"user_id": userID},
		options.FindOne().SetProjection(bson.M{"api_keys": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if doc.APIKeys == nil {
		return map[string]string{}, nil
	}
	return doc.APIKeys, nil
}

type userDocument struct {
	APIKeys map[string]string `bson:"api_keys"`
}

// collection wraps the driver collection so the source is testable
// without a server.
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) singleResult
}

type singleResult interface {
	Decode(val any) error
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) singleResult {
	return c.coll.FindOne(ctx, filter, opts...)
}
