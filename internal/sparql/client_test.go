package sparql

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const resultsJSON = `{
	"head": {"vars": ["category", "status", "count"]},
	"results": {"bindings": [
		{"category": {"type": "literal", "value": "Wall — REI"},
		 "status":   {"type": "literal", "value": "Non-Compliant"},
		 "count":    {"type": "literal", "value": "3",
		              "datatype": "http://www.w3.org/2001/XMLSchema#integer"}}
	]}
}`

func TestClientQuery(t *testing.T) {
	t.Run("form convention", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("unexpected content type %q", ct)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatal(err)
			}
			if r.PostFormValue("query") == "" {
				t.Error("query form parameter missing")
			}
			if accept := r.Header.Get("Accept"); accept != "application/sparql-results+json" {
				t.Errorf("unexpected accept header %q", accept)
			}
			w.Write([]byte(resultsJSON))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, PostForm, "", "")
		rs, err := c.Query(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(rs.Rows) != 1 || rs.Rows[0]["count"].Num != 3 {
			t.Errorf("unexpected result set: %+v", rs)
		}
	})

	t.Run("direct convention sends raw query body", func(t *testing.T) {
		var gotCT string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCT = r.Header.Get("Content-Type")
			w.Write([]byte(resultsJSON))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, PostDirect, "", "")
		if _, err := c.Query(context.Background(), "SELECT * WHERE { ?s ?p ?o }"); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if gotCT != "application/sparql-query" {
			t.Errorf("expected application/sparql-query, got %q", gotCT)
		}
	})

	t.Run("basic auth forwarded", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "auditor" || pass != "secret" {
				t.Error("basic auth credentials not forwarded")
			}
			w.Write([]byte(resultsJSON))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, PostDirect, "auditor", "secret")
		if _, err := c.Query(context.Background(), "SELECT 1"); err != nil {
			t.Fatalf("query failed: %v", err)
		}
	})

	t.Run("non-2xx surfaces status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("MALFORMED QUERY: Lexical error"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, PostDirect, "", "")
		_, err := c.Query(context.Background(), "SELEC broken")

		var epErr *EndpointError
		if !errors.As(err, &epErr) {
			t.Fatalf("expected EndpointError, got %T: %v", err, err)
		}
		if epErr.StatusCode != 400 || epErr.Body != "MALFORMED QUERY: Lexical error" {
			t.Errorf("diagnostic detail lost: %+v", epErr)
		}
	})

	t.Run("unparseable 2xx body is malformed, not empty", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>proxy error page</html>"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, PostDirect, "", "")
		_, err := c.Query(context.Background(), "SELECT 1")

		var mfErr *MalformedResponseError
		if !errors.As(err, &mfErr) {
			t.Fatalf("expected MalformedResponseError, got %T: %v", err, err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", PostDirect, "", "")
		_, err := c.Query(context.Background(), "SELECT 1")

		var trErr *TransportError
		if !errors.As(err, &trErr) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
	})

	t.Run("cancellation abandons the request", func(t *testing.T) {
		blocked := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-blocked
		}))
		defer srv.Close()
		defer close(blocked)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(srv.URL, PostDirect, "", "")
		if _, err := c.Query(ctx, "SELECT 1"); err == nil {
			t.Fatal("expected error from cancelled context")
		}
	})
}
