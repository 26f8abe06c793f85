// Package mongoindex implements store.Store over a single MongoDB
// collection, storing the canonical serialized payload alongside indexed
// fields for run_id/tenant_id lookups, in the style of the search
// repositories built against go.mongodb.org/mongo-driver.
package mongoindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

type artifactCollection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	ReplaceOne(ctx context.Context, filter, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOptions]) (*mongo.DeleteResult, error)
}

// Store is a MongoDB-backed store.Store implementation.
type Store struct {
	collection artifactCollection
}

// New wraps coll. The caller is responsible for creating indexes on
// kurral_id (unique), run_id, and tenant_id/created_at.
func New(coll *mongo.Collection) *Store {
	return &Store{collection: coll}
}

type document struct {
	ID              string   `bson:"kurral_id"`
	RunID           string   `bson:"run_id"`
	TenantID        string   `bson:"tenant_id"`
	SemanticBuckets []string `bson:"semantic_buckets"`
	CreatedAtUnix   int64    `bson:"created_at_unix"`
	Payload         []byte   `bson:"payload"`
	Pending         bool     `bson:"pending"`
}

// Put upserts the document for a, marking it visible (pending: false).
func (s *Store) Put(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, false)
}

// PutPartial upserts the document for a marked pending: true, so Get/
// GetByRunID/ListByTenant/ListAll (all of which filter on pending: false)
// never surface it until Promote finalizes the same ID.
func (s *Store) PutPartial(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, true)
}

// Promote finalizes a, marking its document visible (pending: false) and
// overwriting whatever PutPartial had stashed for that ID.
func (s *Store) Promote(ctx context.Context, a artifact.SealedArtifact) error {
	return s.upsert(ctx, a, false)
}

func (s *Store) upsert(ctx context.Context, a artifact.SealedArtifact, pending bool) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/mongoindex: put: serialize: %w", err)
	}
	doc := document{
		ID:              a.ID,
		RunID:           a.RunID,
		TenantID:        a.TenantID,
		SemanticBuckets: a.SemanticBuckets,
		CreatedAtUnix:   a.CreatedAt.UnixNano(),
		Payload:         payload,
		Pending:         pending,
	}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"kurral_id": a.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store/mongoindex: put: %w", err)
	}
	return nil
}

// Get fetches and deserializes the artifact with the given ID.
func (s *Store) Get(ctx context.Context, id string) (artifact.SealedArtifact, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"kurral_id": id, "pending": false}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/mongoindex: get: %w", err)
	}
	return artifact.Deserialize(doc.Payload)
}

// GetByRunID returns the most recently created artifact for runID.
func (s *Store) GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at_unix", Value: -1}})
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"run_id": runID, "pending": false}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/mongoindex: get by run id: %w", err)
	}
	return artifact.Deserialize(doc.Payload)
}

// ListByTenant returns index entries for tenantID, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]store.IndexEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at_unix", Value: -1}}).
		SetProjection(bson.M{"payload": 0})
	cur, err := s.collection.Find(ctx, bson.M{"tenant_id": tenantID, "pending": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("store/mongoindex: list by tenant: %w", err)
	}
	defer cur.Close(ctx)

	var out []store.IndexEntry
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("store/mongoindex: list by tenant: decode: %w", err)
		}
		out = append(out, store.IndexEntry{
			ID:              doc.ID,
			RunID:           doc.RunID,
			TenantID:        doc.TenantID,
			SemanticBuckets: doc.SemanticBuckets,
			CreatedAt:       timeFromUnixNano(doc.CreatedAtUnix),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store/mongoindex: list by tenant: %w", err)
	}
	return out, nil
}

// ListAll returns index entries across every tenant, newest first, bounded
// to limit entries (0 means no bound).
func (s *Store) ListAll(ctx context.Context, limit int) ([]store.IndexEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at_unix", Value: -1}}).
		SetProjection(bson.M{"payload": 0})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cur, err := s.collection.Find(ctx, bson.M{"pending": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("store/mongoindex: list all: %w", err)
	}
	defer cur.Close(ctx)

	var out []store.IndexEntry
	for cur.Next(ctx) {
		var doc document
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("store/mongoindex: list all: decode: %w", err)
		}
		out = append(out, store.IndexEntry{
			ID:              doc.ID,
			RunID:           doc.RunID,
			TenantID:        doc.TenantID,
			SemanticBuckets: doc.SemanticBuckets,
			CreatedAt:       timeFromUnixNano(doc.CreatedAtUnix),
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store/mongoindex: list all: %w", err)
	}
	return out, nil
}

func timeFromUnixNano(nsec int64) time.Time {
	return time.Unix(0, nsec).UTC()
}

// Delete removes the document with the given ID, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"kurral_id": id}); err != nil {
		return fmt.Errorf("store/mongoindex: delete: %w", err)
	}
	return nil
}
