// Package execution provides the per-node-invocation state carrier for the
// workflow engine.
//
// A Context is built by the execution engine for exactly one node invocation:
// it bundles the opaque workflow/execution/user references, the node's slice
// of the graph, its resolved input and configured properties, the outputs of
// previously executed nodes, and two variable scopes. One logical flow of
// control owns a Context for its lifetime; parallel branches each receive
// their own Context (or a derived child), so isolation comes from copying,
// not from locks.
package execution

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultExecutionTimeout is the advisory per-node timeout applied when the
// engine does not set one explicitly. The context itself enforces nothing;
// the scheduler owning the invocation reads and applies it.
const DefaultExecutionTimeout = 5 * time.Minute

// Context carries everything one node invocation needs: identity, references,
// graph wiring, input/properties, accumulated upstream outputs and the two
// variable scopes.
//
// A Context is not safe for concurrent use. Exactly one goroutine owns it
// between creation and the end of the node's invocation; hand concurrent
// branches their own contexts via ChildContext.
type Context struct {
	GraphView

	id        string
	workflow  interface{}
	execution interface{}
	user      interface{}
	nodeID    string
	graph     GraphData

	input      map[string]interface{}
	properties map[string]interface{}

	previousNodes map[string]map[string]interface{}
	workflowVars  map[string]interface{}
	executionVars map[string]interface{}

	timeout       time.Duration
	testExecution bool

	logger *zap.Logger
	// base is the untagged logger, carried so derived children can be
	// re-tagged with their own ids.
	base *zap.Logger
}

// NewContext creates a context for one invocation of the node identified by
// nodeID. The workflow, execution and user references are passed through
// opaquely; this package never inspects them. Input and properties start
// empty and can be attached with WithInput and WithProperties.
func NewContext(workflow, execution, user interface{}, nodeID string, graph GraphData) *Context {
	id := uuid.NewString()
	return &Context{
		GraphView:     NewGraphView(graph),
		id:            id,
		workflow:      workflow,
		execution:     execution,
		user:          user,
		nodeID:        nodeID,
		graph:         graph,
		input:         map[string]interface{}{},
		properties:    map[string]interface{}{},
		previousNodes: map[string]map[string]interface{}{},
		workflowVars:  map[string]interface{}{},
		executionVars: map[string]interface{}{},
		timeout:       DefaultExecutionTimeout,
		logger:        zap.NewNop(),
	}
}

// WithInput attaches the node's resolved input data and returns the context
// for chaining. A nil map resets the input to empty.
func (c *Context) WithInput(input map[string]interface{}) *Context {
	if input == nil {
		input = map[string]interface{}{}
	}
	c.input = input
	return c
}

// WithProperties attaches the node's configured properties and returns the
// context for chaining. A nil map resets the properties to empty.
func (c *Context) WithProperties(properties map[string]interface{}) *Context {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	c.properties = properties
	return c
}

// WithLogger attaches a logger, pre-tagged with the context and node ids, and
// returns the context for chaining. A nil logger installs a no-op logger.
func (c *Context) WithLogger(logger *zap.Logger) *Context {
	if logger == nil {
		c.logger = zap.NewNop()
		c.base = nil
		return c
	}
	c.base = logger
	c.logger = logger.With(
		zap.String("context_id", c.id),
		zap.String("node_id", c.nodeID),
	)
	return c
}

// ContextID returns the generated id of this invocation, used for log
// correlation. Derived child contexts get fresh ids.
func (c *Context) ContextID() string { return c.id }

// Workflow returns the opaque workflow reference.
func (c *Context) Workflow() interface{} { return c.workflow }

// Execution returns the opaque execution (run) reference.
func (c *Context) Execution() interface{} { return c.execution }

// User returns the opaque user reference.
func (c *Context) User() interface{} { return c.user }

// NodeID returns the id of the node this context was built for.
func (c *Context) NodeID() string { return c.nodeID }

// Graph returns the node's graph data.
func (c *Context) Graph() GraphData { return c.graph }

// Input returns the node's resolved input data.
func (c *Context) Input() map[string]interface{} { return c.input }

// Properties returns the node's configured properties.
func (c *Context) Properties() map[string]interface{} { return c.properties }

// Property returns the configured property under key, or fallback when the
// key is absent.
func (c *Context) Property(key string, fallback interface{}) interface{} {
	if value, ok := c.properties[key]; ok {
		return value
	}
	return fallback
}

// HasProperty reports whether a property is configured under key.
func (c *Context) HasProperty(key string) bool {
	_, ok := c.properties[key]
	return ok
}

// AddPreviousNode records (or overwrites) the output of an upstream node so
// downstream resolution can read it.
func (c *Context) AddPreviousNode(nodeID string, output map[string]interface{}) {
	c.previousNodes[nodeID] = output
	c.logger.Debug("Recorded previous node output",
		zap.String("previous_node_id", nodeID))
}

// PreviousNodeOutput returns the recorded output of the given upstream node.
// The boolean reports whether an output was recorded.
func (c *Context) PreviousNodeOutput(nodeID string) (map[string]interface{}, bool) {
	output, ok := c.previousNodes[nodeID]
	return output, ok
}

// PreviousNodes returns all recorded upstream outputs keyed by node id.
func (c *Context) PreviousNodes() map[string]map[string]interface{} {
	return c.previousNodes
}

// WorkflowVariable returns the workflow-scoped variable under key, or
// fallback when unset. Workflow-scoped variables are conceptually shared by
// every node of the same workflow definition.
func (c *Context) WorkflowVariable(key string, fallback interface{}) interface{} {
	if value, ok := c.workflowVars[key]; ok {
		return value
	}
	return fallback
}

// SetWorkflowVariable sets a workflow-scoped variable.
func (c *Context) SetWorkflowVariable(key string, value interface{}) {
	c.workflowVars[key] = value
}

// ExecutionVariable returns the execution-scoped variable under key, or
// fallback when unset. Execution-scoped variables are private to one run.
func (c *Context) ExecutionVariable(key string, fallback interface{}) interface{} {
	if value, ok := c.executionVars[key]; ok {
		return value
	}
	return fallback
}

// SetExecutionVariable sets an execution-scoped variable.
func (c *Context) SetExecutionVariable(key string, value interface{}) {
	c.executionVars[key] = value
}

// ExecutionTimeout returns the advisory per-node timeout.
func (c *Context) ExecutionTimeout() time.Duration { return c.timeout }

// SetExecutionTimeout sets the advisory per-node timeout. The value is
// consumed by the scheduler; the context does not enforce it.
func (c *Context) SetExecutionTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// IsTestExecution reports whether this invocation is part of a test run.
func (c *Context) IsTestExecution() bool { return c.testExecution }

// SetTestExecution marks this invocation as part of a test run. Behavioural
// effect is up to node implementations.
func (c *Context) SetTestExecution(test bool) {
	c.testExecution = test
}

// Logger returns the logger attached to this context.
func (c *Context) Logger() *zap.Logger { return c.logger }

// ChildContext derives a context for a nested invocation of childNodeID.
//
// The child shares the workflow/execution/user references, the configured
// properties, the advisory timeout and the test flag. The previous-node
// outputs and both variable scopes are deep-copied: the child owns
// independent copies, with no aliasing back to the parent, so concurrent
// branches cannot corrupt each other's state. The child starts with empty
// graph data; the engine wires the child node's own graph slice when it has
// one.
func (c *Context) ChildContext(childNodeID string, input map[string]interface{}) *Context {
	if input == nil {
		input = map[string]interface{}{}
	}

	child := &Context{
		GraphView:     NewGraphView(GraphData{}),
		id:            uuid.NewString(),
		workflow:      c.workflow,
		execution:     c.execution,
		user:          c.user,
		nodeID:        childNodeID,
		input:         input,
		properties:    c.properties,
		previousNodes: deepCopyOutputs(c.previousNodes),
		workflowVars:  deepCopyMap(c.workflowVars),
		executionVars: deepCopyMap(c.executionVars),
		timeout:       c.timeout,
		testExecution: c.testExecution,
	}
	child.WithLogger(c.base)

	c.logger.Debug("Derived child context",
		zap.String("child_node_id", childNodeID),
		zap.String("child_context_id", child.id))

	return child
}
