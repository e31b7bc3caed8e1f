package queries

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("embedded catalog failed to load: %v", err)
	}

	if len(c.Groups) != 3 {
		t.Errorf("expected 3 module groups, got %d", len(c.Groups))
	}

	// The report service depends on these presets being present.
	for _, key := range []string{KeyGlobalCompliance, KeyElementDetail, KeyRiskConfidence} {
		q, ok := c.ByKey(key)
		if !ok {
			t.Fatalf("preset %q missing from catalog", key)
		}
		if !strings.Contains(q.Query, "PREFIX ficr:") {
			t.Errorf("preset %q missing shared prefixes", key)
		}
		if !strings.Contains(q.Query, "SELECT") {
			t.Errorf("preset %q has no SELECT clause", key)
		}
	}
}

func TestParseRejectsDuplicateKeys(t *testing.T) {
	data := []byte(`
prefixes: ""
groups:
  - category: "X"
    queries:
      - key: dup
        label: one
        query: SELECT 1
      - key: dup
        label: two
        query: SELECT 2
`)
	if _, err := Parse(data); err == nil {
		t.Error("expected duplicate key error")
	}
}

func TestByKeyMiss(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.ByKey("no-such-preset"); ok {
		t.Error("lookup of unknown key should miss")
	}
}
