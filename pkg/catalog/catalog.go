package catalog

import (
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/wehubfusion/Daedalus/pkg/cache"
)

// tracerName identifies catalog spans in trace backends.
const tracerName = "github.com/wehubfusion/Daedalus/pkg/catalog"

// Catalog is the process-wide directory of installed node kinds, indexed by
// id and by category. Registration is expected during initialization; every
// operation is nevertheless guarded so lookups stay safe alongside late
// registrations.
//
// Construct one Catalog at the composition root and pass it by reference to
// whatever needs lookups; there is no package-level instance.
type Catalog struct {
	mu         sync.RWMutex
	nodes      map[string]Descriptor
	order      []string
	categories map[string][]string
	// categoryOrder preserves first-seen order of categories. A category
	// stays listed even after its last node is unregistered.
	categoryOrder []string

	store  cache.Store
	logger *zap.Logger
	tracer trace.Tracer
	group  singleflight.Group
}

// New creates an empty catalog. A nil store falls back to an in-memory cache;
// a nil logger falls back to a no-op logger.
func New(store cache.Store, logger *zap.Logger) *Catalog {
	if store == nil {
		store = cache.NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		nodes:      make(map[string]Descriptor),
		categories: make(map[string][]string),
		store:      store,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Register inserts a node kind by its id. Registering an id that is already
// present is a logged no-op: the existing entry wins and the category index
// is left untouched.
//
// Register does not invalidate a previously cached manifest; call ClearCache
// after mutating an already-published catalog.
func (c *Catalog) Register(desc Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.nodes[desc.ID]; exists {
		c.logger.Warn("Node already registered, keeping existing entry",
			zap.String("node_id", desc.ID))
		return
	}

	c.nodes[desc.ID] = desc
	c.order = append(c.order, desc.ID)

	if _, seen := c.categories[desc.Category]; !seen {
		c.categoryOrder = append(c.categoryOrder, desc.Category)
	}
	c.categories[desc.Category] = append(c.categories[desc.Category], desc.ID)

	c.logger.Info("Node registered",
		zap.String("node_id", desc.ID),
		zap.String("category", desc.Category))
	c.logger.Debug("Cached manifest may be stale until cleared",
		zap.String("node_id", desc.ID))
}

// Unregister removes a node kind by id, filtering it out of its category's
// list. It returns false and mutates nothing when the id is unknown.
// The category itself is kept even when its list becomes empty.
func (c *Catalog) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	desc, exists := c.nodes[id]
	if !exists {
		return false
	}

	delete(c.nodes, id)
	c.order = removeString(c.order, id)
	c.categories[desc.Category] = removeString(c.categories[desc.Category], id)

	c.logger.Info("Node unregistered",
		zap.String("node_id", id),
		zap.String("category", desc.Category))
	c.logger.Debug("Cached manifest may be stale until cleared",
		zap.String("node_id", id))
	return true
}

// Get returns the descriptor registered under id. The boolean reports
// whether the id is known.
func (c *Catalog) Get(id string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	desc, ok := c.nodes[id]
	return desc, ok
}

// Has reports whether a node kind is registered under id.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.nodes[id]
	return ok
}

// All returns every registered descriptor in registration order.
func (c *Catalog) All() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]Descriptor, 0, len(c.order))
	for _, id := range c.order {
		all = append(all, c.nodes[id])
	}
	return all
}

// ByCategory returns the descriptors registered under the given category, in
// registration order. An unknown category yields an empty result.
func (c *Catalog) ByCategory(category string) []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.categories[category]
	matches := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		matches = append(matches, c.nodes[id])
	}
	return matches
}

// Categories returns the known category names in first-seen order. A category
// remains listed even when all of its nodes have been unregistered.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.categoryOrder))
	copy(names, c.categoryOrder)
	return names
}

// ByTags returns every node kind whose tag set intersects the given tags, in
// registration order. An empty tag set yields an empty result: there is
// nothing to intersect with.
func (c *Catalog) ByTags(tags []string) []Descriptor {
	if len(tags) == 0 {
		return []Descriptor{}
	}

	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		want[t] = struct{}{}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := []Descriptor{}
	for _, id := range c.order {
		if desc := c.nodes[id]; desc.tagsIntersect(want) {
			matches = append(matches, desc)
		}
	}
	return matches
}

// Search returns every node kind whose name or description contains the
// query, compared case-insensitively, in registration order.
func (c *Catalog) Search(query string) []Descriptor {
	folded := cases.Fold().String(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := []Descriptor{}
	for _, id := range c.order {
		desc := c.nodes[id]
		if strings.Contains(cases.Fold().String(desc.Name), folded) ||
			strings.Contains(cases.Fold().String(desc.Description), folded) {
			matches = append(matches, desc)
		}
	}
	return matches
}

// Statistics summarizes the catalog: total node count, per-category counts
// and the number of categories currently holding at least one node.
type Statistics struct {
	TotalNodes      int            `json:"total_nodes"`
	Categories      map[string]int `json:"categories"`
	CategoriesCount int            `json:"categories_count"`
}

// Stats returns the current catalog statistics. Categories whose last node
// has been unregistered are not counted.
func (c *Catalog) Stats() Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int)
	for category, ids := range c.categories {
		if len(ids) > 0 {
			counts[category] = len(ids)
		}
	}
	return Statistics{
		TotalNodes:      len(c.nodes),
		Categories:      counts,
		CategoriesCount: len(counts),
	}
}

// ValidateCompatibility reports whether the source node kind can feed the
// target node kind: the source must declare at least one output slot and the
// target at least one input slot. Either id being unknown yields false.
//
// This is a deliberately shallow check; it does not match slot types.
func (c *Catalog) ValidateCompatibility(sourceID, targetID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	source, ok := c.nodes[sourceID]
	if !ok {
		return false
	}
	target, ok := c.nodes[targetID]
	if !ok {
		return false
	}
	return len(source.Outputs) > 0 && len(target.Inputs) > 0
}

// maxRecommendations bounds the result of RecommendedNodes.
const maxRecommendations = 5

// RecommendedNodes returns up to five node ids related to the given one:
// same category, or at least one shared tag. The queried id itself is never
// included. Results follow catalog registration order, not relevance; an
// unknown id yields an empty list.
func (c *Catalog) RecommendedNodes(id string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subject, ok := c.nodes[id]
	if !ok {
		return []string{}
	}

	subjectTags := make(map[string]struct{}, len(subject.Tags))
	for _, t := range subject.Tags {
		subjectTags[t] = struct{}{}
	}

	recommended := []string{}
	for _, candidateID := range c.order {
		if candidateID == id {
			continue
		}
		candidate := c.nodes[candidateID]
		if candidate.Category == subject.Category || candidate.tagsIntersect(subjectTags) {
			recommended = append(recommended, candidateID)
			if len(recommended) == maxRecommendations {
				break
			}
		}
	}
	return recommended
}

// removeString filters the first occurrence of value out of the slice.
func removeString(items []string, value string) []string {
	for i, item := range items {
		if item == value {
			return append(items[:i], items[i+1:]...)
		}
	}
	return items
}
