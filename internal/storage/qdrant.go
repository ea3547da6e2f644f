package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantConfig holds connection settings for the Qdrant gRPC API.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStore wraps the Qdrant client with connection management and health checks.
type QdrantStore struct {
	client *qdrant.Client
	host   string
	port   int

	mu   sync.RWMutex
	dims map[string]int // dimension per collection created by this process
}

// NewQdrantStore creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client: client,
		host:   cfg.Host,
		port:   cfg.Port,
		dims:   make(map[string]int),
	}

	if err := store.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return store, nil
}

// newBackoff returns the retry policy shared by health checks and upserts.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return backoff.WithContext(b, ctx)
}

func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, newBackoff(ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("%w: health check failed: %v", ErrQdrantUnreachable, err)
	}

	if result == nil || result.GetTitle() == "" {
		return fmt.Errorf("%w: health check returned invalid response", ErrQdrantUnreachable)
	}

	return nil
}

// ResetCollection deletes the collection if it exists and creates it again
// with the given vector size and distance. Calling it twice leaves one empty collection.
func (s *QdrantStore) ResetCollection(ctx context.Context, name string, dimension int, metric Metric) error {
	distance, err := qdrantDistance(metric)
	if err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: collection %s needs a positive dimension, got %d", ErrDimensionMismatch, name, dimension)
	}

	if err := s.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to reset collection %s: %w", name, err)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	if err := s.createPayloadIndexes(ctx, name); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	s.mu.Lock()
	s.dims[name] = dimension
	s.mu.Unlock()

	return nil
}

// createPayloadIndexes creates keyword indexes for the fields callers filter on.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context, name string) error {
	fields := []string{
		FieldFilePath,
		FieldFileType,
		FieldRepository,
	}

	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// UpsertBatch stores records in one upsert call and waits for Qdrant to apply it.
// Transient gRPC failures are retried with exponential backoff.
func (s *QdrantStore) UpsertBatch(ctx context.Context, name string, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.RLock()
	dimension := s.dims[name]
	s.mu.RUnlock()
	if err := validateRecords(records, dimension); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(r.Payload()),
		}
	}

	err := backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, newBackoff(ctx))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	return nil
}

// DeleteCollection removes the collection. A missing collection is not an error.
func (s *QdrantStore) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", name, err)
	}

	s.mu.Lock()
	delete(s.dims, name)
	s.mu.Unlock()

	if !exists {
		return nil
	}

	if err := s.client.DeleteCollection(ctx, name); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// CollectionInfo retrieves collection statistics including total points count.
func (s *QdrantStore) CollectionInfo(ctx context.Context, name string) (*CollectionInfo, error) {
	info := &CollectionInfo{Name: name}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		return info, nil
	}

	collection, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return info, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	info.Exists = true
	info.PointsCount = collection.GetPointsCount()
	return info, nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func qdrantDistance(metric Metric) (qdrant.Distance, error) {
	switch metric {
	case MetricCosine, "":
		return qdrant.Distance_Cosine, nil
	case MetricDot:
		return qdrant.Distance_Dot, nil
	case MetricEuclid:
		return qdrant.Distance_Euclid, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("%w: %q", ErrUnsupportedMetric, metric)
	}
}

func isNotFound(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.NotFound
}

// isTransient reports whether a gRPC error is worth retrying.
func isTransient(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// String identifies the backend in logs and health output.
func (s *QdrantStore) String() string {
	return fmt.Sprintf("qdrant://%s:%d", s.host, s.port)
}
