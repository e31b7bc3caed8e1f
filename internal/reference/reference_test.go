package reference

import "testing"

func TestLoadEmbeddedVocabulary(t *testing.T) {
	v, err := Load()
	if err != nil {
		t.Fatalf("embedded vocabulary failed to load: %v", err)
	}

	if v.Namespace == "" {
		t.Error("namespace must be set")
	}
	if len(v.Classes) == 0 || len(v.ObjectProperties) == 0 || len(v.DatatypeProperties) == 0 {
		t.Fatalf("vocabulary is incomplete: %d classes, %d object props, %d datatype props",
			len(v.Classes), len(v.ObjectProperties), len(v.DatatypeProperties))
	}

	wantClasses := []string{"ficr:Wall", "ficr:Doorset", "ficr:RiskUnit", "ficr:BoundaryAssumption"}
	byName := make(map[string]Class)
	for _, c := range v.Classes {
		byName[c.Name] = c
	}
	for _, name := range wantClasses {
		c, ok := byName[name]
		if !ok {
			t.Errorf("class %s missing from vocabulary", name)
			continue
		}
		if c.Comment == "" {
			t.Errorf("class %s has no comment", name)
		}
	}
}

func TestParseRejectsDuplicateTerms(t *testing.T) {
	data := []byte(`
namespace: "https://w3id.org/ficr#"
classes:
  - name: "ficr:Wall"
    label: "Wall"
  - name: "ficr:Wall"
    label: "Wall again"
`)
	if _, err := Parse(data); err == nil {
		t.Error("duplicate term names must be rejected")
	}
}
