package statepath

import (
	"encoding/json"
	"reflect"
	"testing"
)

// decode parses a JSON document into the generic tree Extract operates on.
func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return doc
}

func TestExtract(t *testing.T) {
	doc := decode(t, `{
		"a": {"b": 5},
		"sensors": [{"temp": 21.5}, {"temp": 19.0}],
		"name": "kitchen"
	}`)

	tests := []struct {
		name  string
		path  string
		want  any
		found bool
	}{
		{"root via dollar", "$", doc, true},
		{"root via empty path", "", doc, true},
		{"nested member", "$.a.b", float64(5), true},
		{"string member", "$.name", "kitchen", true},
		{"index then member", "$.sensors[0].temp", 21.5, true},
		{"second element", "$.sensors[1].temp", 19.0, true},
		{"missing key", "$.a.c", nil, false},
		{"index into map", "$.a[0]", nil, false},
		{"member on scalar", "$.name.x", nil, false},
		{"index out of range", "$.sensors[5]", nil, false},
		{"negative index", "$.sensors[-1]", nil, false},
		{"unterminated index", "$.sensors[0", nil, false},
		{"non-numeric index", "$.sensors[x]", nil, false},
		{"empty member name", "$..b", nil, false},
		{"garbage path", "a.b", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Extract(doc, tt.path)
			if found != tt.found {
				t.Fatalf("Extract(%q) found = %v, want %v", tt.path, found, tt.found)
			}
			if found && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestExtract_RootIsIdentity(t *testing.T) {
	// "$" must return the document unchanged, whatever its shape.
	for _, raw := range []string{`"scalar"`, `[1,2,3]`, `{"k":true}`, `42`} {
		doc := decode(t, raw)
		got, found := Extract(doc, "$")
		if !found {
			t.Fatalf("Extract(%s, $) not found", raw)
		}
		if !reflect.DeepEqual(got, doc) {
			t.Errorf("Extract(%s, $) = %v, want identity", raw, got)
		}
	}
}

func TestExtract_ArrayRoot(t *testing.T) {
	doc := decode(t, `[{"v": 1}, {"v": 2}]`)

	got, found := Extract(doc, "$[1].v")
	if !found {
		t.Fatal("Extract($[1].v) not found")
	}
	if got != float64(2) {
		t.Errorf("Extract($[1].v) = %v, want 2", got)
	}
}
