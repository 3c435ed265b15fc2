package integrity

import (
	"encoding/json"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize serializes v as compact JSON with map keys sorted and string
// values NFC-normalized, a sorted-key ordered-map
// approach that keeps hashing independent of field ordering.
func Canonicalize(v interface{}) ([]byte, error) {
	canonical := canonicalizeValue(v)
	return json.Marshal(canonical)
}

func canonicalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return canonicalizeMap(val)
	case []interface{}:
		return canonicalizeSlice(val)
	case string:
		return norm.NFC.String(val)
	default:
		return v
	}
}

func canonicalizeMap(m map[string]interface{}) *orderedMap {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	om := &orderedMap{
		keys:   keys,
		values: make(map[string]interface{}, len(m)),
	}
	for k, v := range m {
		om.values[norm.NFC.String(k)] = canonicalizeValue(v)
	}
	// keys themselves are also NFC-normalized, then re-sorted for determinism
	for i, k := range om.keys {
		om.keys[i] = norm.NFC.String(k)
	}
	sort.Strings(om.keys)
	return om
}

func canonicalizeSlice(s []interface{}) []interface{} {
	result := make([]interface{}, len(s))
	for i, v := range s {
		result[i] = canonicalizeValue(v)
	}
	return result
}

type orderedMap struct {
	keys   []string
	values map[string]interface{}
}

func (om *orderedMap) MarshalJSON() ([]byte, error) {
	if len(om.keys) == 0 {
		return []byte("{}"), nil
	}
	result := []byte("{")
	for i, key := range om.keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		valueJSON, err := json.Marshal(om.values[key])
		if err != nil {
			return nil, err
		}
		result = append(result, keyJSON...)
		result = append(result, ':')
		result = append(result, valueJSON...)
	}
	result = append(result, '}')
	return result, nil
}
