// Package render turns a request for entities of one type into JSON, going through the
// finder path of the transformer and an optional output cache.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/conduit-lang/projector/internal/cache"
	"github.com/conduit-lang/projector/internal/entity"
	"github.com/conduit-lang/projector/internal/transform"
	"github.com/conduit-lang/projector/internal/transform/selector"
	"github.com/conduit-lang/projector/internal/visitor"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ErrNoIDs is returned for a request without ids
var ErrNoIDs = errors.New("no ids requested")

// Request describes one render
type Request struct {
	Type     string
	IDs      []int64
	Visitor  visitor.Visitor
	Selector *selector.Selector
}

// Renderer renders requests to JSON
type Renderer struct {
	transformer *transform.Transformer
	cache       cache.Cache
	ttl         time.Duration
	logger      *zap.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithCache caches rendered output for ttl; a zero ttl uses the cache default
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Renderer) {
		if c != nil {
			r.cache = c
			r.ttl = ttl
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Renderer
func New(t *transform.Transformer, opts ...Option) *Renderer {
	r := &Renderer{
		transformer: t,
		cache:       cache.Nop{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render loads the requested entities, transforms them and returns a JSON array in the
// order the store returns them.
func (r *Renderer) Render(ctx context.Context, req Request) ([]byte, error) {
	if len(req.IDs) == 0 {
		return nil, ErrNoIDs
	}
	if req.Visitor == nil {
		req.Visitor = visitor.Guest()
	}
	if req.Selector == nil {
		req.Selector = selector.All()
	}

	logger := r.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("type", req.Type),
		zap.Int64("visitor_id", req.Visitor.UserID()),
	)

	key := CacheKey(req)
	if body, err := r.cache.Get(ctx, key); err == nil {
		logger.Debug("render cache hit", zap.String("key", key))
		return body, nil
	} else if !cache.IsMiss(err) {
		logger.Warn("render cache read failed", zap.Error(err))
	}

	finder, err := r.finder(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	tc := r.transformer.NewContext(req.Visitor, req.Selector, entity.NewGraph())
	outputs, err := r.transformer.TransformFinder(ctx, tc, nil, finder)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		return nil, err
	}

	body, err := json.Marshal(outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", req.Type, err)
	}

	if err := r.cache.Set(ctx, key, body, r.ttl); err != nil {
		logger.Warn("render cache write failed", zap.Error(err))
	}

	logger.Info("rendered",
		zap.Int("count", len(outputs)),
		zap.Duration("duration", time.Since(start)),
	)
	return body, nil
}

// finder selects the requested ids by the type's first primary key column
func (r *Renderer) finder(req Request) (*entity.Finder, error) {
	store := r.transformer.Store()
	if store == nil {
		return nil, transform.ErrNoStore
	}

	ts, err := store.Schema().Lookup(req.Type)
	if err != nil {
		return nil, err
	}

	ids := make([]interface{}, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = id
	}

	return store.Finder(req.Type).
		Where(ts.PrimaryKey[0], ids...).
		Order(ts.PrimaryKey[0]), nil
}

// CacheKey identifies a render by type, ids, selection and the visitor fingerprint, which
// covers the user id, ignore list and permissions
func CacheKey(req Request) string {
	ids := make([]int64, len(req.IDs))
	copy(ids, req.IDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = cast.ToString(id)
	}

	v := req.Visitor
	if v == nil {
		v = visitor.Guest()
	}

	return cache.Key("render",
		req.Type,
		strings.Join(parts, ","),
		req.Selector.String(),
		v.Fingerprint(),
	)
}
