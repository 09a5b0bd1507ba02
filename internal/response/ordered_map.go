package response

import (
	"bytes"
	"encoding/json"
)

// OrderedMap is a JSON object that keeps the insertion order of its keys.
// Search documents and list rows are written with it so clients see fields in
// a stable order.
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

// NewOrderedMap creates a new OrderedMap
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0, 4),
		values: make(map[string]interface{}, 4),
	}
}

// Set adds or updates a key-value pair. Updating keeps the original position.
func (om *OrderedMap) Set(key string, value interface{}) *OrderedMap {
	if _, exists := om.values[key]; !exists {
		om.keys = append(om.keys, key)
	}
	om.values[key] = value
	return om
}

// Get returns the value stored under key.
func (om *OrderedMap) Get(key string) (interface{}, bool) {
	v, ok := om.values[key]
	return v, ok
}

// Delete removes a key-value pair from the ordered map
func (om *OrderedMap) Delete(key string) {
	if _, exists := om.values[key]; !exists {
		return
	}
	delete(om.values, key)
	for i, k := range om.keys {
		if k == key {
			om.keys = append(om.keys[:i], om.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (om *OrderedMap) Keys() []string {
	out := make([]string, len(om.keys))
	copy(out, om.keys)
	return out
}

func (om *OrderedMap) Len() int { return len(om.keys) }

// MarshalJSON implements json.Marshaler to maintain field order
func (om *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range om.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valueBytes, err := marshalNoEscape(om.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valueBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalNoEscape encodes v like json.Marshal but leaves <, > and & alone.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
