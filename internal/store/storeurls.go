package store

import (
	"encoding/json"
)

// EncodeStoreUrls serializes a store url map into its persisted text form, a JSON object.
func EncodeStoreUrls(storeUrls map[string]string) string {
	if storeUrls == nil {
		return "{}"
	}
	// a map[string]string always marshals
	out, _ := json.Marshal(storeUrls)
	return string(out)
}

// ParseStoreUrls reads the persisted text form of a store url map. Malformed text, `null` and
// anything that is not a JSON object of strings yield an empty map instead of an error, a product
// with an unreadable map is simply not fetched.
func ParseStoreUrls(text string) map[string]string {
	out := map[string]string{}
	var parsed map[string]string
	err := json.Unmarshal([]byte(text), &parsed)
	if err != nil {
		return out
	}
	for k, v := range parsed {
		out[k] = v
	}
	return out
}
