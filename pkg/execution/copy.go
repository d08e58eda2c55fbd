package execution

// deepCopyValue clones nested maps and slices so a derived context never
// aliases its parent's mutable state. Scalar values are shared as-is.
func deepCopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return deepCopyMap(v)
	case []interface{}:
		cloned := make([]interface{}, len(v))
		for i, item := range v {
			cloned[i] = deepCopyValue(item)
		}
		return cloned
	default:
		return v
	}
}

// deepCopyMap returns an independent clone of m. A nil map clones to an
// empty, writable map.
func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	cloned := make(map[string]interface{}, len(m))
	for k, v := range m {
		cloned[k] = deepCopyValue(v)
	}
	return cloned
}

// deepCopyOutputs clones a node-id -> output-data map, including every
// output map it holds.
func deepCopyOutputs(outputs map[string]map[string]interface{}) map[string]map[string]interface{} {
	cloned := make(map[string]map[string]interface{}, len(outputs))
	for id, output := range outputs {
		cloned[id] = deepCopyMap(output)
	}
	return cloned
}
