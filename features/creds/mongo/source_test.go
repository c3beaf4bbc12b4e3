package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	lastFilter any
	keys       map[string]string
	err        error
}

type fakeResult struct {
	keys map[string]string
	err  error
}

func (c *fakeCollection) FindOne(_ context.Context, filter any, _ ...*options.FindOneOptions) singleResult {
	c.lastFilter = filter
	return fakeResult{keys: c.keys, err: c.err}
}

func (r fakeResult) Decode(val any) error {
	if r.err != nil {
		return r.err
	}
	val.(*userDocument).APIKeys = r.keys
	return nil
}

func newSource(coll *fakeCollection) *Source {
	return &Source{users: coll, timeout: time.Second}
}

func TestKeysReturnsUserMap(t *testing.T) {
	coll := &fakeCollection{keys: map[string]string{"openai": "blob-1"}}
	s := newSource(coll)

	keys, err := s.Keys(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"openai": "blob-1"}, keys)
	require.Equal(t, bson.M{"user_id": "u-1"}, coll.lastFilter)
}

func TestKeysMissingUserYieldsEmptyMap(t *testing.T) {
	s := newSource(&fakeCollection{err: mongodriver.ErrNoDocuments})
	keys, err := s.Keys(context.Background(), "ghost")
	require.NoError(t, err)
	require.Empty(t, keys)
	require.NotNil(t, keys)
}

func TestKeysNilMapYieldsEmptyMap(t *testing.T) {
	s := newSource(&fakeCollection{})
	keys, err := s.Keys(context.Background(), "u-1")
	require.NoError(t, err)
	require.Empty(t, keys)
	require.NotNil(t, keys)
}

func TestKeysPropagatesErrors(t *testing.T) {
	boom := errors.New("socket closed")
	s := newSource(&fakeCollection{err: boom})
	_, err := s.Keys(context.Background(), "u-1")
	require.ErrorIs(t, err, boom)
}

func TestKeysRequiresUser(t *testing.T) {
	s := newSource(&fakeCollection{})
	_, err := s.Keys(context.Background(), "")
	require.ErrorContains(t, err, "user id is required")
}
