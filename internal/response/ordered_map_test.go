package response

import (
	"encoding/json"
	"testing"
)

// TestOrderedMapMarshalJSON tests that OrderedMap maintains field order
func TestOrderedMapMarshalJSON(t *testing.T) {
	om := NewOrderedMap()
	om.Set("first", "value1")
	om.Set("second", 42)
	om.Set("third", true)
	om.Set("fourth", []string{"a", "b", "c"})

	data, err := json.Marshal(om)
	if err != nil {
		t.Fatalf("Failed to marshal OrderedMap: %v", err)
	}

	expected := `{"first":"value1","second":42,"third":true,"fourth":["a","b","c"]}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, string(data))
	}
}

func TestOrderedMapMarshalJSONEmpty(t *testing.T) {
	data, err := json.Marshal(NewOrderedMap())
	if err != nil {
		t.Fatalf("Failed to marshal empty OrderedMap: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("Expected {}, got %s", string(data))
	}
}

// TestOrderedMapMarshalJSONWithEscaping tests keys that need escaping
func TestOrderedMapMarshalJSONWithEscaping(t *testing.T) {
	om := NewOrderedMap()
	om.Set("normal", "value1")
	om.Set("key\"with\"quotes", "value2")
	om.Set("key\nwith\nnewlines", "value3")
	om.Set("key\\with\\backslashes", "value4")

	data, err := json.Marshal(om)
	if err != nil {
		t.Fatalf("Failed to marshal OrderedMap with escaping: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	if result["key\"with\"quotes"] != "value2" {
		t.Errorf("Expected 'value2', got %v", result["key\"with\"quotes"])
	}
	if result["key\\with\\backslashes"] != "value4" {
		t.Errorf("Expected 'value4', got %v", result["key\\with\\backslashes"])
	}
}

func TestOrderedMapMarshalJSONKeepsHTML(t *testing.T) {
	om := NewOrderedMap().Set("query", "a<b && c>d")

	data, err := json.Marshal(om)
	if err != nil {
		t.Fatalf("Failed to marshal OrderedMap: %v", err)
	}
	if string(data) != `{"query":"a<b && c>d"}` {
		t.Errorf("unexpected encoding %s", string(data))
	}
}

func TestOrderedMapNested(t *testing.T) {
	inner := NewOrderedMap().Set("z", 1).Set("a", 2)
	outer := NewOrderedMap().Set("bool", NewOrderedMap().Set("must", []interface{}{inner}))

	data, err := json.Marshal(outer)
	if err != nil {
		t.Fatalf("Failed to marshal nested OrderedMap: %v", err)
	}
	if string(data) != `{"bool":{"must":[{"z":1,"a":2}]}}` {
		t.Errorf("unexpected encoding %s", string(data))
	}
}

// TestOrderedMapSet tests the Set operation
func TestOrderedMapSet(t *testing.T) {
	om := NewOrderedMap()
	om.Set("first", 1)
	om.Set("second", 2)
	om.Set("third", 3)

	if om.Len() != 3 {
		t.Errorf("Expected 3 keys, got %d", om.Len())
	}

	// Updating keeps a single entry
	om.Set("second", 22)
	if om.Len() != 3 {
		t.Errorf("Expected 3 keys after update, got %d", om.Len())
	}
	if v, _ := om.Get("second"); v != 22 {
		t.Errorf("Expected updated value 22, got %v", v)
	}
	if _, ok := om.Get("missing"); ok {
		t.Error("Get of a missing key reported ok")
	}
}

// TestOrderedMapDelete tests the Delete operation
func TestOrderedMapDelete(t *testing.T) {
	om := NewOrderedMap()
	om.Set("first", 1)
	om.Set("second", 2)
	om.Set("third", 3)

	om.Delete("second")
	om.Delete("missing")

	expectedKeys := []string{"first", "third"}
	keys := om.Keys()
	if len(keys) != len(expectedKeys) {
		t.Fatalf("Expected %d keys after delete, got %d", len(expectedKeys), len(keys))
	}
	for i, key := range keys {
		if key != expectedKeys[i] {
			t.Errorf("Expected key %s at position %d, got %s", expectedKeys[i], i, key)
		}
	}
}
