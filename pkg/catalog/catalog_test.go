package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/Daedalus/pkg/execution"
)

// nopExecutor satisfies the capability interface for descriptors in tests.
type nopExecutor struct{}

func (nopExecutor) Execute(ctx context.Context, ec *execution.Context) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func triggerNode(id string) Descriptor {
	return Descriptor{
		ID:          id,
		Name:        "Webhook Trigger",
		Version:     "1.0.0",
		Category:    "trigger",
		Icon:        "webhook",
		Description: "Starts a workflow when an HTTP request arrives",
		Properties: []PropertySpec{
			{Name: "path", Type: PropertyTypeString, Default: "/hook", Description: "Listen path"},
		},
		Outputs:          []Slot{{Name: "main", Type: "main"}},
		Tags:             []string{"http", "entry"},
		MaxExecutionTime: 30 * time.Second,
		Handle:           nopExecutor{},
	}
}

func actionNode(id, name string, tags ...string) Descriptor {
	return Descriptor{
		ID:          id,
		Name:        name,
		Version:     "1.2.0",
		Category:    "action",
		Icon:        "gear",
		Description: "Performs " + name + " against upstream data",
		Inputs:      []Slot{{Name: "main", Type: "main", Required: true}},
		Outputs:     []Slot{{Name: "main", Type: "main"}},
		Tags:        tags,
		Handle:      nopExecutor{},
	}
}

func TestRegisterAndGet(t *testing.T) {
	c := New(nil, nil)

	a := triggerNode("webhook")
	b := actionNode("http-request", "HTTP Request", "http")
	c.Register(a)
	c.Register(b)

	got, ok := c.Get("webhook")
	require.True(t, ok)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Category, got.Category)

	got, ok = c.Get("http-request")
	require.True(t, ok)
	assert.Equal(t, b.Name, got.Name)
	assert.True(t, got.HasTag("http"))
	assert.False(t, got.HasTag("mail"))

	assert.True(t, c.Has("webhook"))
	assert.False(t, c.Has("missing"))

	_, ok = c.Get("missing")
	assert.False(t, ok)

	byCategory := c.ByCategory("trigger")
	require.Len(t, byCategory, 1)
	assert.Equal(t, "webhook", byCategory[0].ID)
}

func TestRegisterDuplicateKeepsExisting(t *testing.T) {
	c := New(nil, nil)

	original := actionNode("transform", "Transform", "data")
	c.Register(original)

	replacement := actionNode("transform", "Transform v2", "data")
	c.Register(replacement)

	got, ok := c.Get("transform")
	require.True(t, ok)
	assert.Equal(t, "Transform", got.Name, "existing entry must win")

	// No duplicate id in the category index either
	assert.Len(t, c.ByCategory("action"), 1)
	assert.Len(t, c.All(), 1)
}

func TestUnregister(t *testing.T) {
	c := New(nil, nil)
	c.Register(triggerNode("webhook"))
	c.Register(actionNode("http-request", "HTTP Request"))

	assert.True(t, c.Unregister("webhook"))
	assert.False(t, c.Has("webhook"))
	assert.Empty(t, c.ByCategory("trigger"))
	assert.Len(t, c.All(), 1)

	// Unknown id: false and nothing changes
	assert.False(t, c.Unregister("webhook"))
	assert.Len(t, c.All(), 1)

	// The emptied category stays listed
	assert.Equal(t, []string{"trigger", "action"}, c.Categories())
}

func TestAllPreservesRegistrationOrder(t *testing.T) {
	c := New(nil, nil)
	ids := []string{"n3", "n1", "n2"}
	for _, id := range ids {
		c.Register(actionNode(id, "Node "+id))
	}

	all := c.All()
	require.Len(t, all, 3)
	for i, id := range ids {
		assert.Equal(t, id, all[i].ID)
	}
}

func TestByTags(t *testing.T) {
	c := New(nil, nil)
	c.Register(actionNode("a", "A", "http", "data"))
	c.Register(actionNode("b", "B", "data"))
	c.Register(actionNode("c", "C", "mail"))

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "single tag", tags: []string{"data"}, want: []string{"a", "b"}},
		{name: "multiple tags union", tags: []string{"http", "mail"}, want: []string{"a", "c"}},
		{name: "unknown tag", tags: []string{"nope"}, want: []string{}},
		{name: "empty tag set has no intersection", tags: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ByTags(tt.tags)
			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	c := New(nil, nil)
	c.Register(actionNode("mailer", "Send Email"))
	c.Register(actionNode("slack", "Slack Notify"))

	byName := c.Search("EMAIL")
	require.Len(t, byName, 1)
	assert.Equal(t, "mailer", byName[0].ID)

	// Description of actionNode mentions the node name
	byDescription := c.Search("slack notify against")
	require.Len(t, byDescription, 1)
	assert.Equal(t, "slack", byDescription[0].ID)

	assert.Empty(t, c.Search("telegram"))
}

func TestValidateCompatibility(t *testing.T) {
	c := New(nil, nil)
	c.Register(triggerNode("webhook")) // outputs only
	c.Register(actionNode("http-request", "HTTP Request"))
	sink := actionNode("logger", "Log")
	sink.Outputs = nil // inputs only
	c.Register(sink)

	assert.True(t, c.ValidateCompatibility("webhook", "http-request"))
	assert.True(t, c.ValidateCompatibility("http-request", "logger"))

	// A sink cannot feed anything
	assert.False(t, c.ValidateCompatibility("logger", "http-request"))
	// A trigger has no inputs to feed
	assert.False(t, c.ValidateCompatibility("http-request", "webhook"))

	assert.False(t, c.ValidateCompatibility("missing", "logger"))
	assert.False(t, c.ValidateCompatibility("webhook", "missing"))
}

func TestRecommendedNodes(t *testing.T) {
	c := New(nil, nil)
	c.Register(actionNode("subject", "Subject", "data"))
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		c.Register(actionNode(id, "Node "+id))
	}
	other := triggerNode("tagged-trigger")
	other.Tags = []string{"data"}
	c.Register(other)

	recommended := c.RecommendedNodes("subject")
	assert.Len(t, recommended, maxRecommendations)
	assert.NotContains(t, recommended, "subject")
	// Catalog order, first five matches
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, recommended)

	// Tag intersection counts across categories
	c2 := New(nil, nil)
	c2.Register(actionNode("subject", "Subject", "data"))
	c2.Register(other)
	assert.Equal(t, []string{"tagged-trigger"}, c2.RecommendedNodes("subject"))

	assert.Empty(t, c.RecommendedNodes("missing"))
}

func TestCategoriesAndStats(t *testing.T) {
	c := New(nil, nil)
	c.Register(triggerNode("n1"))
	c.Register(actionNode("n2", "Second"))
	c.Register(actionNode("n3", "Third"))

	assert.Equal(t, []string{"trigger", "action"}, c.Categories())

	action := c.ByCategory("action")
	require.Len(t, action, 2)
	assert.Equal(t, "n2", action[0].ID)
	assert.Equal(t, "n3", action[1].ID)

	stats := c.Stats()
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, map[string]int{"trigger": 1, "action": 2}, stats.Categories)
	assert.Equal(t, 2, stats.CategoriesCount)
}

func TestConcurrentReads(t *testing.T) {
	c := New(nil, nil)
	for _, id := range []string{"a", "b", "c"} {
		c.Register(actionNode(id, "Node "+id, "data"))
	}

	done := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				c.Get("b")
				c.All()
				c.ByTags([]string{"data"})
				c.Search("node")
				c.Stats()
				c.RecommendedNodes("a")
			}
		}()
	}
	for i := 0; i < 16; i++ {
		<-done
	}
}
