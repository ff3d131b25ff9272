// Package storetest provides an in-memory stand-in for the Elasticsearch
// endpoints used by store.Client.
package storetest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Server answers index administration, bulk, refresh and search requests
// for a single index, "trips" unless changed with SetIndex, and records what
// it received.
//
// Bulk request bodies are parsed line by line; every document is kept so
// tests can check what was written. The search response is fixed by
// SearchResponse, or built from the stored documents when it is empty.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	index    string
	exists   bool
	requests []string
	schema   string
	bulks    [][]string
	docs     map[string]string
	search   string

	failBulk  bool
	failIndex bool
	rejectIDs map[string]bool
	response  string
}

// NewServer starts a Server. Close it when done.
func NewServer() *Server {
	s := &Server{
		index:     "trips",
		docs:      make(map[string]string),
		rejectIDs: make(map[string]bool),
	}
	s.Server = httptest.NewServer(s)
	return s
}

// SetIndex changes the name of the index the server knows.
func (s *Server) SetIndex(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = name
}

// SetExists sets whether the index exists.
func (s *Server) SetExists(exists bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = exists
}

// FailBulk makes every following bulk request fail with a 500.
func (s *Server) FailBulk() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBulk = true
}

// FailCreateIndex makes index creation fail with a 400.
func (s *Server) FailCreateIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failIndex = true
}

// Reject makes bulk requests refuse the document with the given _id.
func (s *Server) Reject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectIDs[id] = true
}

// SetSearchResponse fixes the body returned for search requests.
func (s *Server) SetSearchResponse(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = body
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Schema returns the body of the last create index request.
func (s *Server) Schema() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Bulks returns the NDJSON lines of every accepted bulk request.
func (s *Server) Bulks() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.bulks...)
}

// Docs returns the stored documents keyed by _id.
func (s *Server) Docs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make(map[string]string, len(s.docs))
	for k, v := range s.docs {
		docs[k] = v
	}
	return docs
}

// LastSearch returns the body of the last search request.
func (s *Server) LastSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)

	root := "/" + s.index
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == root && r.Method == http.MethodHead:
		if s.exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}

	case r.URL.Path == root && r.Method == http.MethodDelete:
		s.exists = false
		s.docs = make(map[string]string)
		fmt.Fprint(w, `{"acknowledged":true}`)

	case r.URL.Path == root && r.Method == http.MethodPut:
		if s.failIndex {
			writeError(w, http.StatusBadRequest, "mapper_parsing_exception", "bad mapping")
			return
		}
		s.exists = true
		s.schema = string(body)
		fmt.Fprintf(w, `{"acknowledged":true,"shards_acknowledged":true,"index":%q}`, s.index)

	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		if s.failBulk {
			writeError(w, http.StatusInternalServerError, "internal", "boom")
			return
		}
		s.bulk(w, body)

	case r.URL.Path == root+"/_refresh":
		fmt.Fprint(w, `{"_shards":{"total":1,"successful":1,"failed":0}}`)

	case r.URL.Path == root+"/_search":
		s.search = string(body)
		if s.response != "" {
			fmt.Fprint(w, s.response)
			return
		}
		fmt.Fprintf(w, `{"took":1,"hits":{"total":{"value":%d,"relation":"eq"},"hits":[]},"aggregations":{}}`, len(s.docs))

	default:
		writeError(w, http.StatusNotFound, "not_found", "unexpected request "+r.Method+" "+r.URL.Path)
	}
}

// bulk must be called with s.mu held.
func (s *Server) bulk(w http.ResponseWriter, body []byte) {
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	s.bulks = append(s.bulks, lines)

	var items []string
	var hasErrors bool
	for i := 0; i+1 < len(lines); i += 2 {
		id := gjson.Get(lines[i], "index._id").String()
		if s.rejectIDs[id] {
			hasErrors = true
			items = append(items, fmt.Sprintf(`{"index":{"_index":%q,"_id":%q,"status":400,"error":{"type":"mapper_parsing_exception","reason":"failed to parse"}}}`, s.index, id))
			continue
		}
		s.docs[id] = lines[i+1]
		items = append(items, fmt.Sprintf(`{"index":{"_index":%q,"_id":%q,"status":201,"result":"created"}}`, s.index, id))
	}
	fmt.Fprintf(w, `{"took":1,"errors":%t,"items":[%s]}`, hasErrors, strings.Join(items, ","))
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"type":%q,"reason":%q},"status":%d}`, typ, reason, status)
}
