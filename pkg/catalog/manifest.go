package catalog

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	// manifestCacheKey is the fixed key the cached manifest is stored under.
	manifestCacheKey = "node_manifest"

	// ManifestCacheTTL is the lifetime of a cached manifest.
	ManifestCacheTTL = time.Hour
)

// ManifestEntry is the serializable projection of one node kind, consumed by
// external API and UI layers. Field names are part of the wire contract.
type ManifestEntry struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Version          string         `json:"version"`
	Category         string         `json:"category"`
	Icon             string         `json:"icon"`
	Description      string         `json:"description"`
	Properties       []PropertySpec `json:"properties"`
	Inputs           []Slot         `json:"inputs"`
	Outputs          []Slot         `json:"outputs"`
	Tags             []string       `json:"tags"`
	SupportsAsync    bool           `json:"supports_async"`
	MaxExecutionTime int64          `json:"max_execution_time"` // seconds
}

// Manifest builds the manifest projection of every registered node kind, in
// registration order.
func (c *Catalog) Manifest() []ManifestEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]ManifestEntry, 0, len(c.order))
	for _, id := range c.order {
		desc := c.nodes[id]
		entries = append(entries, ManifestEntry{
			ID:               desc.ID,
			Name:             desc.Name,
			Version:          desc.Version,
			Category:         desc.Category,
			Icon:             desc.Icon,
			Description:      desc.Description,
			Properties:       desc.Properties,
			Inputs:           desc.Inputs,
			Outputs:          desc.Outputs,
			Tags:             desc.Tags,
			SupportsAsync:    desc.SupportsAsync,
			MaxExecutionTime: int64(desc.MaxExecutionTime.Seconds()),
		})
	}
	return entries
}

// CachedManifest serves the manifest from the cache store, rebuilding it on a
// miss. Concurrent callers hitting a miss collapse into a single rebuild; the
// rest observe the freshly computed value. Cache failures degrade to a fresh
// build rather than an error to the caller wherever possible.
func (c *Catalog) CachedManifest(ctx context.Context) ([]ManifestEntry, error) {
	if entries, ok := c.cachedEntries(ctx); ok {
		return entries, nil
	}

	result, err, _ := c.group.Do(manifestCacheKey, func() (interface{}, error) {
		// A concurrent caller may have repopulated the cache while this
		// call waited its turn.
		if entries, ok := c.cachedEntries(ctx); ok {
			return entries, nil
		}

		ctx, span := c.tracer.Start(ctx, "catalog.manifest.rebuild")
		defer span.End()

		entries := c.Manifest()
		span.SetAttributes(attribute.Int("catalog.total_nodes", len(entries)))

		data, err := json.Marshal(entries)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "manifest encoding failed")
			return nil, err
		}

		if err := c.store.Set(ctx, manifestCacheKey, data, ManifestCacheTTL); err != nil {
			// Serve the fresh build even when the store write fails.
			span.RecordError(err)
			c.logger.Warn("Failed to store manifest in cache",
				zap.Error(err))
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ManifestEntry), nil
}

// cachedEntries reads and decodes the cached manifest. Read errors and
// corrupt payloads are logged and treated as misses.
func (c *Catalog) cachedEntries(ctx context.Context) ([]ManifestEntry, bool) {
	data, ok, err := c.store.Get(ctx, manifestCacheKey)
	if err != nil {
		c.logger.Warn("Manifest cache read failed",
			zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("Discarding corrupt cached manifest",
			zap.Error(err))
		return nil, false
	}
	return entries, true
}

// ClearCache invalidates the cached manifest. The next CachedManifest call
// rebuilds it.
func (c *Catalog) ClearCache(ctx context.Context) error {
	c.group.Forget(manifestCacheKey)
	if err := c.store.Delete(ctx, manifestCacheKey); err != nil {
		return err
	}
	c.logger.Info("Manifest cache cleared")
	return nil
}
