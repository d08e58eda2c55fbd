package execution

// Position is a node's placement on the workflow canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConnectionMap models a node's outgoing wiring: connection type (e.g. "main",
// "error") to output index to the list of downstream node ids. A single
// output index may fan out to several targets.
type ConnectionMap map[string]map[string][]string

// GraphData is the slice of the workflow graph that belongs to one node: its
// canvas position and its outgoing connections.
type GraphData struct {
	Position    *Position     `json:"position,omitempty"`
	Connections ConnectionMap `json:"connections,omitempty"`
}

// GraphView provides read-only access to a node's graph data. It is embedded
// in Context so node implementations can inspect their own wiring without
// being handed the whole workflow graph.
type GraphView struct {
	data GraphData
}

// NewGraphView wraps graph data in a read-only view.
func NewGraphView(data GraphData) GraphView {
	return GraphView{data: data}
}

// NodePosition returns the node's canvas position, defaulting to the origin
// when the graph data carries none.
func (v GraphView) NodePosition() Position {
	if v.data.Position == nil {
		return Position{}
	}
	return *v.data.Position
}

// NodeConnections returns the node's outgoing connections. The result is
// never nil.
func (v GraphView) NodeConnections() ConnectionMap {
	if v.data.Connections == nil {
		return ConnectionMap{}
	}
	return v.data.Connections
}

// HasConnection reports whether the node has at least one outgoing connection
// of the given type at the given output index.
func (v GraphView) HasConnection(connectionType, index string) bool {
	return len(v.ConnectedNodeIDs(connectionType, index)) > 0
}

// ConnectedNodeIDs returns the downstream node ids wired to the given
// connection type and output index. A missing type or index yields an empty
// list, never an error.
func (v GraphView) ConnectedNodeIDs(connectionType, index string) []string {
	byIndex, ok := v.data.Connections[connectionType]
	if !ok {
		return []string{}
	}
	targets, ok := byIndex[index]
	if !ok {
		return []string{}
	}
	return targets
}
