package catalog

import (
	"dario.cat/mergo"
)

// ResolveProperties merges the configured property values over the defaults
// declared in the descriptor's property schema. Configured values win;
// nested maps are merged deeply. The inputs are not modified.
func ResolveProperties(desc Descriptor, configured map[string]interface{}) (map[string]interface{}, error) {
	resolved := make(map[string]interface{}, len(desc.Properties))
	for _, spec := range desc.Properties {
		if spec.Default != nil {
			// Clone map defaults so the merge below cannot write through
			// into the descriptor's schema.
			resolved[spec.Name] = cloneDefault(spec.Default)
		}
	}

	if len(configured) == 0 {
		return resolved, nil
	}

	if err := mergo.Merge(&resolved, configured, mergo.WithOverride); err != nil {
		return nil, err
	}
	return resolved, nil
}

// cloneDefault copies nested maps and slices of a schema default value.
func cloneDefault(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		cloned := make(map[string]interface{}, len(v))
		for k, item := range v {
			cloned[k] = cloneDefault(item)
		}
		return cloned
	case []interface{}:
		cloned := make([]interface{}, len(v))
		for i, item := range v {
			cloned[i] = cloneDefault(item)
		}
		return cloned
	default:
		return v
	}
}

// MissingRequiredProperties returns the names of required properties that
// are neither configured nor covered by a schema default, in schema order.
func MissingRequiredProperties(desc Descriptor, configured map[string]interface{}) []string {
	missing := []string{}
	for _, spec := range desc.Properties {
		if !spec.Required {
			continue
		}
		if _, ok := configured[spec.Name]; ok {
			continue
		}
		if spec.Default != nil {
			continue
		}
		missing = append(missing, spec.Name)
	}
	return missing
}
