// Package objectstore implements store.Store over S3-compatible object
// storage, with key layout tenant/YYYY/MM/<id>.kurral and the sidecar
// index stored as a single index.json object per bucket prefix.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/kurral/kurral/artifact"
	"github.com/kurral/kurral/store"
)

// Config configures a Store.
type Config struct {
	// Client is the S3 client used for all operations. Required.
	Client *s3.Client
	// Bucket is the target bucket. Required.
	Bucket string
	// Prefix namespaces all keys within Bucket (e.g. "kurral/"). Optional.
	Prefix string
}

// Store is an S3-backed store.Store implementation. Index reads/writes are
// serialized by an in-process mutex; concurrent writers across processes
// race on the index object, matching the object-storage backend's
// eventual-consistency posture described for C9.
type Store struct {
	client *s3.Client
	bucket string
	prefix string

	mu sync.Mutex
	// byID indexes artifact keys discovered so far, to avoid a full index
	// scan for single-artifact lookups once an artifact has been seen this
	// process lifetime.
	byID map[string]string
}

// New constructs a Store from cfg.
func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, errors.New("store/objectstore: Config.Client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("store/objectstore: Config.Bucket is required")
	}
	return &Store{client: cfg.Client, bucket: cfg.Bucket, prefix: cfg.Prefix, byID: make(map[string]string)}, nil
}

func (s *Store) objectKey(tenantID string, createdAt time.Time, id string) string {
	return fmt.Sprintf("%s%s/%04d/%02d/%s.kurral", s.prefix, tenantID, createdAt.Year(), createdAt.Month(), id)
}

func (s *Store) indexKey() string {
	return s.prefix + "index.json"
}

func (s *Store) partialKey(id string) string {
	return s.prefix + "partial/" + id + ".kurral"
}

// Put writes a's payload to its tenant/YYYY/MM/<id>.kurral key and updates
// the shared index object.
func (s *Store) Put(ctx context.Context, a artifact.SealedArtifact) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/objectstore: put: serialize: %w", err)
	}
	key := s.objectKey(a.TenantID, a.CreatedAt, a.ID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("store/objectstore: put: %w", err)
	}

	s.mu.Lock()
	s.byID[a.ID] = key
	s.mu.Unlock()

	return s.updateIndex(ctx, func(idx *store.Index) {
		entries := idx.Artifacts[:0]
		replaced := false
		for _, e := range idx.Artifacts {
			if e.ID == a.ID {
				entries = append(entries, store.EntryFromArtifact(a))
				replaced = true
				continue
			}
			entries = append(entries, e)
		}
		if !replaced {
			entries = append(entries, store.EntryFromArtifact(a))
		}
		idx.Artifacts = entries
	})
}

// PutPartial writes a's payload under a key outside the index/byID
// namespace, so Get/GetByRunID/ListByTenant/ListAll never surface it until
// Promote is called with the same ID.
func (s *Store) PutPartial(ctx context.Context, a artifact.SealedArtifact) error {
	payload, err := artifact.Serialize(a)
	if err != nil {
		return fmt.Errorf("store/objectstore: put partial: serialize: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.partialKey(a.ID)),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("store/objectstore: put partial: %w", err)
	}
	return nil
}

// Promote finalizes a under its real key and index entry, then removes
// whatever PutPartial had stashed for that ID.
func (s *Store) Promote(ctx context.Context, a artifact.SealedArtifact) error {
	if err := s.Put(ctx, a); err != nil {
		return fmt.Errorf("store/objectstore: promote: %w", err)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.partialKey(a.ID))})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("store/objectstore: promote: remove partial: %w", err)
	}
	return nil
}

// Get fetches the artifact with the given ID, consulting the index for its
// key when not already cached in this process.
func (s *Store) Get(ctx context.Context, id string) (artifact.SealedArtifact, error) {
	key, err := s.keyForID(ctx, id)
	if err != nil {
		return artifact.SealedArtifact{}, err
	}
	if key == "" {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if isNotFound(err) {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/objectstore: get: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return artifact.SealedArtifact{}, fmt.Errorf("store/objectstore: get: read: %w", err)
	}
	return artifact.Deserialize(data)
}

func (s *Store) keyForID(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	key, ok := s.byID[id]
	s.mu.Unlock()
	if ok {
		return key, nil
	}
	idx, err := s.readIndex(ctx)
	if err != nil {
		return "", err
	}
	for _, e := range idx.Artifacts {
		if e.ID == id {
			k := s.objectKey(e.TenantID, e.CreatedAt, e.ID)
			s.mu.Lock()
			s.byID[id] = k
			s.mu.Unlock()
			return k, nil
		}
	}
	return "", nil
}

// GetByRunID resolves runID via the index, returning the most recently
// created match.
func (s *Store) GetByRunID(ctx context.Context, runID string) (artifact.SealedArtifact, error) {
	idx, err := s.readIndex(ctx)
	if err != nil {
		return artifact.SealedArtifact{}, err
	}
	var best *store.IndexEntry
	for i := range idx.Artifacts {
		e := idx.Artifacts[i]
		if e.RunID != runID {
			continue
		}
		if best == nil || e.CreatedAt.After(best.CreatedAt) {
			best = &idx.Artifacts[i]
		}
	}
	if best == nil {
		return artifact.SealedArtifact{}, store.ErrNotFound
	}
	return s.Get(ctx, best.ID)
}

// ListByTenant returns index entries for tenantID, newest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]store.IndexEntry, error) {
	idx, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	var out []store.IndexEntry
	for _, e := range idx.Artifacts {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAll returns index entries across every tenant, newest first, bounded
// to limit entries (0 means no bound).
func (s *Store) ListAll(ctx context.Context, limit int) ([]store.IndexEntry, error) {
	idx, err := s.readIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]store.IndexEntry(nil), idx.Artifacts...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the artifact object and its index entry, if present.
func (s *Store) Delete(ctx context.Context, id string) error {
	key, err := s.keyForID(ctx, id)
	if err != nil {
		return err
	}
	if key != "" {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
			return fmt.Errorf("store/objectstore: delete: %w", err)
		}
	}
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
	return s.updateIndex(ctx, func(idx *store.Index) {
		entries := idx.Artifacts[:0]
		for _, e := range idx.Artifacts {
			if e.ID != id {
				entries = append(entries, e)
			}
		}
		idx.Artifacts = entries
	})
}

func (s *Store) readIndex(ctx context.Context) (store.Index, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.indexKey())})
	if isNotFound(err) {
		return store.Index{}, nil
	}
	if err != nil {
		return store.Index{}, fmt.Errorf("store/objectstore: read index: %w", err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return store.Index{}, fmt.Errorf("store/objectstore: read index: %w", err)
	}
	var idx store.Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return store.Index{}, fmt.Errorf("store/objectstore: decode index: %w", err)
	}
	return idx, nil
}

func (s *Store) updateIndex(ctx context.Context, mutate func(*store.Index)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := s.readIndex(ctx)
	if err != nil {
		return err
	}
	mutate(&idx)
	idx.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("store/objectstore: marshal index: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.indexKey()),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return fmt.Errorf("store/objectstore: write index: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}
	return false
}
