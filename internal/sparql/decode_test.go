package sparql

import (
	"encoding/json"
	"math"
	"testing"
)

const xsd = "http://www.w3.org/2001/XMLSchema#"

func TestDecodeTerm(t *testing.T) {
	t.Run("numeric datatypes parse as float", func(t *testing.T) {
		cases := []struct {
			datatype string
			lexical  string
			want     float64
		}{
			{xsd + "decimal", "42.5", 42.5},
			{xsd + "integer", "60", 60},
			{xsd + "double", "2.54", 2.54},
			{xsd + "float", "-0.5", -0.5},
		}
		for _, c := range cases {
			got := DecodeTerm(Term{Type: "literal", Value: c.lexical, Datatype: c.datatype})
			if got.Kind != KindNumber {
				t.Fatalf("%s: expected number kind, got %v", c.datatype, got.Kind)
			}
			if got.Num != c.want {
				t.Errorf("%s: expected %v, got %v", c.datatype, c.want, got.Num)
			}
		}
	})

	t.Run("malformed numeric lexical yields NaN", func(t *testing.T) {
		got := DecodeTerm(Term{Type: "literal", Value: "not-a-number", Datatype: xsd + "decimal"})
		if got.Kind != KindNumber || !math.IsNaN(got.Num) {
			t.Errorf("expected NaN number, got %+v", got)
		}
	})

	t.Run("boolean true only for exact lexical true", func(t *testing.T) {
		if got := DecodeTerm(Term{Value: "true", Datatype: xsd + "boolean"}); !got.Bool {
			t.Error("\"true\" should decode to true")
		}
		// "1" is a valid xsd:boolean lexical form but decodes to false here.
		if got := DecodeTerm(Term{Value: "1", Datatype: xsd + "boolean"}); got.Bool {
			t.Error("\"1\" should decode to false")
		}
		if got := DecodeTerm(Term{Value: "false", Datatype: xsd + "boolean"}); got.Bool {
			t.Error("\"false\" should decode to false")
		}
	})

	t.Run("uris and plain literals keep lexical form", func(t *testing.T) {
		got := DecodeTerm(Term{Type: "uri", Value: "https://w3id.org/bam/ficr#Wall"})
		if got.Kind != KindText || got.Text != "https://w3id.org/bam/ficr#Wall" {
			t.Errorf("unexpected value: %+v", got)
		}
		got = DecodeTerm(Term{Type: "literal", Value: "墙体 W-01", XMLLang: "zh"})
		if got.Kind != KindText || got.Text != "墙体 W-01" {
			t.Errorf("language-tagged literal mishandled: %+v", got)
		}
	})
}

func TestDecodeRow(t *testing.T) {
	vars := []string{"elementLabel", "actualREI", "isObscured"}
	b := Binding{
		"elementLabel": {Type: "literal", Value: "Wall W-01"},
		"actualREI":    {Type: "literal", Value: "30", Datatype: xsd + "integer"},
	}

	row := DecodeRow(vars, b)

	if len(row) != len(vars) {
		t.Fatalf("expected a key per declared variable, got %d keys", len(row))
	}
	// OPTIONAL semantics: unbound variable is present as null.
	if !row["isObscured"].IsNull() {
		t.Error("unbound variable should decode to null")
	}
	if row["actualREI"].Num != 30 {
		t.Errorf("expected 30, got %v", row["actualREI"].Num)
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("preserves variable and row order", func(t *testing.T) {
		wire := &Response{
			Head: Head{Vars: []string{"ruLabel", "evidenceGapCount"}},
			Results: Results{Bindings: []Binding{
				{"ruLabel": {Value: "Unit B"}, "evidenceGapCount": {Value: "3", Datatype: xsd + "integer"}},
				{"ruLabel": {Value: "Unit A"}, "evidenceGapCount": {Value: "1", Datatype: xsd + "integer"}},
			}},
		}

		rs := DecodeResponse(wire)

		if rs.Variables[0] != "ruLabel" || rs.Variables[1] != "evidenceGapCount" {
			t.Errorf("variable order not preserved: %v", rs.Variables)
		}
		if rs.Rows[0]["ruLabel"].Text != "Unit B" || rs.Rows[1]["ruLabel"].Text != "Unit A" {
			t.Error("row order not preserved")
		}
	})

	t.Run("empty bindings is a valid empty result", func(t *testing.T) {
		wire := &Response{Head: Head{Vars: []string{"x"}}}
		rs := DecodeResponse(wire)
		if rs.Rows == nil || len(rs.Rows) != 0 {
			t.Errorf("expected empty non-nil row slice, got %#v", rs.Rows)
		}
	})
}

func TestValueRoundTrip(t *testing.T) {
	// Decoding then re-encoding a numeric binding must match the original
	// lexical value as a number within floating-point tolerance.
	lexicals := []string{"318000", "2.54", "0.001", "-60"}
	for _, lex := range lexicals {
		v := DecodeTerm(Term{Value: lex, Datatype: xsd + "decimal"})
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var back float64
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if math.Abs(back-v.Num) > 1e-9 {
			t.Errorf("%s: round trip drifted: %v vs %v", lex, back, v.Num)
		}
	}
}

func TestValueMarshalJSON(t *testing.T) {
	row := Row{
		"count":  Number(3),
		"flag":   Boolean(true),
		"label":  Text("Slab — REI"),
		"area":   Null,
		"broken": Number(math.NaN()),
	}

	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out["count"] != float64(3) || out["flag"] != true || out["label"] != "Slab — REI" {
		t.Errorf("unexpected serialization: %v", out)
	}
	if out["area"] != nil || out["broken"] != nil {
		t.Errorf("null and NaN should serialize as JSON null: %v", out)
	}
}

func TestValueUnmarshalJSON(t *testing.T) {
	in := Row{
		"count": Number(3),
		"flag":  Boolean(false),
		"label": Text("Fire Door D-01"),
		"area":  Null,
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var out Row
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if out["count"] != Number(3) {
		t.Errorf("number did not survive: %#v", out["count"])
	}
	if out["flag"] != Boolean(false) {
		t.Errorf("boolean did not survive: %#v", out["flag"])
	}
	if out["label"] != Text("Fire Door D-01") {
		t.Errorf("text did not survive: %#v", out["label"])
	}
	if !out["area"].IsNull() {
		t.Errorf("null did not survive: %#v", out["area"])
	}
}
