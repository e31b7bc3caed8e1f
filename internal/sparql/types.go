package sparql

import (
	"encoding/json"
	"math"
)

// Wire types for application/sparql-results+json as returned by GraphDB.

type Response struct {
	Head    Head    `json:"head"`
	Results Results `json:"results"`
}

type Head struct {
	Vars []string `json:"vars"`
}

type Results struct {
	Bindings []Binding `json:"bindings"`
}

// Binding is one result row: query variable name to RDF term.
type Binding map[string]Term

type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	XMLLang  string `json:"xml:lang,omitempty"`
}

// Kind discriminates the decoded native value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindText
)

// Value is an RDF term resolved to a native value once at decode time, so
// read sites never re-inspect datatypes.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	Text string
}

var Null = Value{Kind: KindNull}

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }
func Boolean(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func Text(s string) Value    { return Value{Kind: KindText, Text: s} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsString returns the textual form, empty for null. Numbers and booleans are
// not re-rendered; callers wanting display text should keep the Text kind.
func (v Value) AsString() string {
	if v.Kind == KindText {
		return v.Text
	}
	return ""
}

// AsNumber returns the numeric value, 0 for any other kind.
func (v Value) AsNumber() float64 {
	if v.Kind == KindNumber {
		return v.Num
	}
	return 0
}

// MarshalJSON renders the value as the corresponding native JSON value, so a
// decoded row serializes as a plain object the UI can consume directly. NaN
// has no JSON representation and is emitted as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON restores a value from its native JSON form, for cache
// round-trips. JSON null maps back to Null, which also covers values that
// were NaN when marshalled.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case nil:
		*v = Null
	case bool:
		*v = Boolean(t)
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	default:
		*v = Text(string(data))
	}
	return nil
}

// Row is a decoded binding. Invariant: it holds a key for every variable in
// the response's variable list; variables the endpoint left unbound (SPARQL
// OPTIONAL) map to Null.
type Row map[string]Value

// ResultSet is the decoded form of one query execution. Variables keep the
// declared SELECT order and Rows keep the endpoint-returned order; both
// orders are meaningful to consumers. A ResultSet is built fresh per
// execution and never mutated afterwards.
type ResultSet struct {
	Variables []string `json:"variables"`
	Rows      []Row    `json:"rows"`
}
