package chain

import "github.com/kiwimcp/kiwimcp/internal/models"

// MergeConfigs deep-merges a chain's per-link configs from terminal
// primitive up to leaf tool, leaf wins on conflicts. Maps
// recurse; any other type (including slices) is overwritten wholesale.
func MergeConfigs(c models.Chain) map[string]interface{} {
	merged := map[string]interface{}{}
	for i := len(c) - 1; i >= 0; i-- {
		config, _ := c[i].Manifest["config"].(map[string]interface{})
		merged = deepMerge(merged, config)
	}
	return merged
}

func deepMerge(base, override map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(base))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if baseVal, ok := result[k]; ok {
			baseMap, baseIsMap := baseVal.(map[string]interface{})
			overrideMap, overrideIsMap := v.(map[string]interface{})
			if baseIsMap && overrideIsMap {
				result[k] = deepMerge(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}
