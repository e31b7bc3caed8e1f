package sparql

import (
	"math"
	"strconv"
	"strings"
)

const xsdPrefix = "http://www.w3.org/2001/XMLSchema#"

// DecodeTerm resolves one bound RDF term to a native value.
//
// Numeric XSD datatypes parse as float64; a malformed lexical form from the
// endpoint yields NaN rather than an error, matching the tolerant behaviour
// consumers already depend on. xsd:boolean is true only for the exact lexical
// form "true" ("1" decodes to false). Everything else, including URIs and
// language-tagged literals, keeps its lexical form as text.
func DecodeTerm(t Term) Value {
	switch t.Datatype {
	case xsdPrefix + "decimal", xsdPrefix + "integer", xsdPrefix + "double", xsdPrefix + "float":
		n, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
		if err != nil {
			return Number(math.NaN())
		}
		return Number(n)
	case xsdPrefix + "boolean":
		return Boolean(t.Value == "true")
	default:
		return Text(t.Value)
	}
}

// DecodeRow produces one Row from a binding, keyed by every declared
// variable. Variables absent from the binding map to Null.
func DecodeRow(vars []string, b Binding) Row {
	row := make(Row, len(vars))
	for _, v := range vars {
		term, ok := b[v]
		if !ok {
			row[v] = Null
			continue
		}
		row[v] = DecodeTerm(term)
	}
	return row
}

// DecodeResponse maps a full wire-format response to a ResultSet, preserving
// variable and row order. An empty binding list is a valid empty result, not
// an error.
func DecodeResponse(resp *Response) *ResultSet {
	rs := &ResultSet{
		Variables: resp.Head.Vars,
		Rows:      make([]Row, 0, len(resp.Results.Bindings)),
	}
	for _, b := range resp.Results.Bindings {
		rs.Rows = append(rs.Rows, DecodeRow(rs.Variables, b))
	}
	return rs
}
