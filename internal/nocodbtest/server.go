// Package nocodbtest provides an in-memory NocoDB server for tests. It
// implements the subset of the v1 metadata and v2 data APIs the client
// uses, records every request it receives, and can be told to fail.
package nocodbtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/andrewlwn77/nocodb-mcp/pkg/types"
)

// Token is the API token the server accepts.
const Token = "test-token"

// DefaultPageSize is the page size applied when a listing sets no limit.
const DefaultPageSize = 25

// Request is one request seen by the server.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Server is a fake NocoDB backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	bases    []types.Base
	tables   []*table
	requests []Request
	failures map[string]failure
	nextID   int
}

type failure struct {
	status int
	body   string
}

type table struct {
	meta    types.Table
	columns []types.Column
	records []*types.Record
	views   []types.View
	pkTitle string
	nextRow int64
}

// NewServer starts a fake backend that is closed with the test.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{failures: map[string]failure{}}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.authenticate, s.injectFailures)

	r.Route("/api/v1/db/meta", func(r chi.Router) {
		r.Get("/projects", s.listBases)
		r.Get("/projects/{baseID}", s.getBase)
		r.Get("/projects/{baseID}/tables", s.listTables)
		r.Post("/projects/{baseID}/tables", s.createTable)
		r.Get("/tables/{tableID}", s.getTable)
		r.Delete("/tables/{tableID}", s.deleteTable)
	})

	r.Route("/api/v2", func(r chi.Router) {
		r.Post("/meta/tables/{tableID}/columns", s.addColumn)
		r.Delete("/meta/columns/{columnID}", s.deleteColumn)
		r.Get("/meta/tables/{tableID}/views", s.listViews)
		r.Post("/meta/tables/{tableID}/views", s.createView)

		r.Get("/tables/{tableID}/records", s.listRecords)
		r.Post("/tables/{tableID}/records", s.insertRecords)
		r.Patch("/tables/{tableID}/records", s.updateRecord)
		r.Delete("/tables/{tableID}/records", s.deleteRecord)
		r.Get("/tables/{tableID}/records/{recordID}", s.getRecord)

		r.Post("/storage/upload", s.upload)
		r.Post("/storage/upload-by-url", s.uploadByURL)
	})
	return r
}

// Seeding.

// AddBase registers a base and returns its id.
func (s *Server) AddBase(title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID("p")
	s.bases = append(s.bases, types.Base{ID: id, Title: title, Status: "active"})
	return id
}

// AddTable registers a table in a base with an auto-increment primary key
// column titled pkTitle plus the given columns. An empty pkTitle creates a
// table without a flagged primary key. It returns the table id.
func (s *Server) AddTable(baseID, name string, pkTitle string, columns ...types.Column) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTable(baseID, name, name, pkTitle, columns)
}

// AddTableWithTitle is AddTable with a title distinct from the table name.
func (s *Server) AddTableWithTitle(baseID, name, title, pkTitle string, columns ...types.Column) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTable(baseID, name, title, pkTitle, columns)
}

func (s *Server) addTable(baseID, name, title, pkTitle string, columns []types.Column) string {
	t := &table{
		meta: types.Table{
			ID:        s.newID("m"),
			BaseID:    baseID,
			TableName: name,
			Title:     title,
			Type:      "table",
			Enabled:   true,
		},
		pkTitle: pkTitle,
		nextRow: 1,
	}
	if pkTitle != "" {
		t.columns = append(t.columns, types.Column{
			ID: s.newID("c"), Title: pkTitle, ColumnName: strings.ToLower(pkTitle),
			UIDT: "ID", DT: "int", PK: true, AI: true,
		})
	}
	for _, col := range columns {
		if col.ID == "" {
			col.ID = s.newID("c")
		}
		t.columns = append(t.columns, col)
	}
	t.views = append(t.views, types.View{ID: s.newID("vw"), Title: title, Type: types.ViewGrid, FkModelID: t.meta.ID})
	s.tables = append(s.tables, t)
	return t.meta.ID
}

// AddRecords stores records in a table as given, without assigning keys.
func (s *Server) AddRecords(tableID string, records ...*types.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(tableID)
	if t == nil {
		panic("nocodbtest: unknown table " + tableID)
	}
	t.records = append(t.records, records...)
}

// Records returns a copy of a table's stored records.
func (s *Server) Records(tableID string) []*types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(tableID)
	if t == nil {
		return nil
	}
	out := make([]*types.Record, len(t.records))
	for i, r := range t.records {
		out[i] = r.Clone()
	}
	return out
}

// FailNext makes the next request whose path starts with pathPrefix answer
// with status and body instead of being served.
func (s *Server) FailNext(pathPrefix string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[pathPrefix] = failure{status: status, body: body}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request matching method and path
// prefix, and whether there was one.
func (s *Server) LastRequest(method, pathPrefix string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			return r, true
		}
	}
	return Request{}, false
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s_%04d", prefix, s.nextID)
}

func (s *Server) table(id string) *table {
	for _, t := range s.tables {
		if t.meta.ID == id {
			return t
		}
	}
	return nil
}

// Middleware.

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xc-token") != Token && r.Header.Get("xc-auth") == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		for prefix, f := range s.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				delete(s.failures, prefix)
				s.mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(f.status)
				io.WriteString(w, f.body)
				return
			}
		}
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Metadata handlers.

func (s *Server) listBases(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeList(w, s.bases, len(s.bases))
}

func (s *Server) getBase(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "baseID")
	for _, b := range s.bases {
		if b.ID == id {
			writeJSON(w, http.StatusOK, b)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Base '"+id+"' not found")
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	baseID := chi.URLParam(r, "baseID")
	if !s.hasBase(baseID) {
		writeError(w, http.StatusNotFound, "Base '"+baseID+"' not found")
		return
	}
	list := []types.Table{}
	for _, t := range s.tables {
		if t.meta.BaseID == baseID {
			list = append(list, t.meta)
		}
	}
	writeList(w, list, len(list))
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string         `json:"table_name"`
		Title     string         `json:"title"`
		Columns   []types.Column `json:"columns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	baseID := chi.URLParam(r, "baseID")
	if !s.hasBase(baseID) {
		writeError(w, http.StatusNotFound, "Base '"+baseID+"' not found")
		return
	}
	pk := ""
	var columns []types.Column
	for _, col := range req.Columns {
		if col.PK && pk == "" {
			pk = col.Title
			continue
		}
		columns = append(columns, col)
	}
	if pk == "" {
		pk = "Id"
	}
	id := s.addTable(baseID, req.TableName, req.Title, pk, columns)
	writeJSON(w, http.StatusOK, s.tableDefinition(s.table(id)))
}

func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.tableDefinition(t))
}

func (s *Server) deleteTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "tableID")
	for i, t := range s.tables {
		if t.meta.ID == id {
			s.tables = append(s.tables[:i], s.tables[i+1:]...)
			writeJSON(w, http.StatusOK, true)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Table '"+id+"' not found")
}

func (s *Server) addColumn(w http.ResponseWriter, r *http.Request) {
	var col types.Column
	if err := json.NewDecoder(r.Body).Decode(&col); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	if col.Title == "" {
		writeError(w, http.StatusBadRequest, "Missing column title")
		return
	}
	col.ID = s.newID("c")
	col.FkModelID = t.meta.ID
	t.columns = append(t.columns, col)
	writeJSON(w, http.StatusOK, s.tableDefinition(t))
}

func (s *Server) deleteColumn(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "columnID")
	for _, t := range s.tables {
		for i, col := range t.columns {
			if col.ID == id {
				t.columns = append(t.columns[:i], t.columns[i+1:]...)
				writeJSON(w, http.StatusOK, true)
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "Column '"+id+"' not found")
}

func (s *Server) listViews(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	writeList(w, t.views, len(t.views))
}

func (s *Server) createView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Type  int    `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	view := types.View{ID: s.newID("vw"), Title: req.Title, Type: req.Type, FkModelID: t.meta.ID}
	t.views = append(t.views, view)
	writeJSON(w, http.StatusOK, view)
}

// Record handlers.

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	matched := make([]*types.Record, 0, len(t.records))
	for _, rec := range t.records {
		if matchWhere(rec, q.Get("where")) {
			matched = append(matched, rec)
		}
	}

	limit := DefaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	end := offset + limit
	if offset > len(matched) {
		offset = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	fields := q.Get("fields")
	list := make([]*types.Record, 0, end-offset)
	for _, rec := range matched[offset:end] {
		list = append(list, project(rec, fields))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"list": list,
		"pageInfo": map[string]any{
			"totalRows":   len(matched),
			"page":        offset/limit + 1,
			"pageSize":    limit,
			"isFirstPage": offset == 0,
			"isLastPage":  end >= len(matched),
		},
	})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "recordID")
	if rec := t.find(types.String(id)); rec != nil {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	writeError(w, http.StatusNotFound, "Record '"+id+"' not found")
}

func (s *Server) insertRecords(w http.ResponseWriter, r *http.Request) {
	var body types.Value
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	switch body.Kind() {
	case types.KindObject:
		writeJSON(w, http.StatusOK, t.insert(body.Record()))
	case types.KindArray:
		out := []*types.Record{}
		for _, item := range body.Items() {
			if item.Kind() != types.KindObject {
				writeError(w, http.StatusBadRequest, "Invalid record")
				return
			}
		}
		for _, item := range body.Items() {
			out = append(out, t.insert(item.Record()))
		}
		writeJSON(w, http.StatusOK, out)
	default:
		writeError(w, http.StatusBadRequest, "Invalid request body")
	}
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	var patch types.Record
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	rec, key, ok := t.addressed(w, &patch)
	if !ok {
		return
	}
	patch.Range(func(k string, v types.Value) bool {
		if k != t.keyField() {
			rec.Set(k, v)
		}
		return true
	})
	writeJSON(w, http.StatusOK, types.NewRecord().Set(t.keyField(), key))
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	var body types.Record
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	rec, key, ok := t.addressed(w, &body)
	if !ok {
		return
	}
	for i, candidate := range t.records {
		if candidate == rec {
			t.records = append(t.records[:i], t.records[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, types.NewRecord().Set(t.keyField(), key))
}

// Storage handlers.

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir := r.FormValue("path")
	if dir == "" {
		dir = "noco/uploads"
	}
	writeJSON(w, http.StatusOK, []map[string]any{{
		"url":      s.URL + "/download/" + dir + "/" + header.Filename,
		"path":     dir + "/" + header.Filename,
		"title":    header.Filename,
		"mimetype": header.Header.Get("Content-Type"),
		"size":     len(data),
	}})
}

func (s *Server) uploadByURL(w http.ResponseWriter, r *http.Request) {
	var body types.Value
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := body.Items()
	if body.Kind() == types.KindObject {
		urls, _ := body.Record().Get("urls")
		items = urls.Items()
	}
	out := []map[string]any{}
	for _, item := range items {
		u, _ := item.Record().Get("url")
		name := u.String()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		out = append(out, map[string]any{"url": u.String(), "title": name, "mimetype": "application/octet-stream", "size": 0})
	}
	writeJSON(w, http.StatusOK, out)
}

// Table helpers.

func (s *Server) hasBase(id string) bool {
	for _, b := range s.bases {
		if b.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) lookupTable(w http.ResponseWriter, r *http.Request) (*table, bool) {
	id := chi.URLParam(r, "tableID")
	t := s.table(id)
	if t == nil {
		writeError(w, http.StatusNotFound, "Table '"+id+"' not found")
		return nil, false
	}
	return t, true
}

func (s *Server) tableDefinition(t *table) types.Table {
	def := t.meta
	def.Columns = append([]types.Column{}, t.columns...)
	return def
}

// keyField is the field records are addressed by.
func (t *table) keyField() string {
	if t.pkTitle != "" {
		return t.pkTitle
	}
	return "ID"
}

func (t *table) insert(fields *types.Record) *types.Record {
	rec := types.NewRecord()
	key := types.Int(t.nextRow)
	t.nextRow++
	if t.pkTitle != "" {
		rec.Set(t.pkTitle, key)
	} else if v, ok := fields.Get("ID"); ok {
		key = v
	}
	fields.Range(func(k string, v types.Value) bool {
		if k != t.pkTitle {
			rec.Set(k, v)
		}
		return true
	})
	t.records = append(t.records, rec)
	return types.NewRecord().Set(t.keyField(), key)
}

func (t *table) find(key types.Value) *types.Record {
	for _, rec := range t.records {
		if v, ok := rec.Get(t.keyField()); ok && v.String() == key.String() {
			return rec
		}
	}
	return nil
}

func (t *table) addressed(w http.ResponseWriter, body *types.Record) (*types.Record, types.Value, bool) {
	key, ok := body.Get(t.keyField())
	if !ok || key.IsNull() {
		writeError(w, http.StatusBadRequest, "Primary key '"+t.keyField()+"' is required")
		return nil, key, false
	}
	rec := t.find(key)
	if rec == nil {
		writeError(w, http.StatusNotFound, "Record '"+key.String()+"' not found")
		return nil, key, false
	}
	return rec, key, true
}

// matchWhere supports a single (field,op,value) condition with eq, neq,
// like and gt; anything else matches every record.
func matchWhere(rec *types.Record, where string) bool {
	where = strings.TrimSpace(where)
	if !strings.HasPrefix(where, "(") || !strings.HasSuffix(where, ")") {
		return true
	}
	parts := strings.SplitN(where[1:len(where)-1], ",", 3)
	if len(parts) != 3 {
		return true
	}
	v, _ := rec.Get(parts[0])
	switch parts[1] {
	case "eq":
		return v.String() == parts[2]
	case "neq":
		return v.String() != parts[2]
	case "like":
		return strings.Contains(strings.ToLower(v.String()), strings.ToLower(strings.Trim(parts[2], "%")))
	case "gt":
		n, err := strconv.ParseFloat(parts[2], 64)
		return err == nil && v.Float64() > n
	}
	return true
}

func project(rec *types.Record, fields string) *types.Record {
	if fields == "" {
		return rec
	}
	out := types.NewRecord()
	for _, f := range strings.Split(fields, ",") {
		if v, ok := rec.Get(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

// Encoding helpers.

func decodeBody(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeList[T any](w http.ResponseWriter, list []T, total int) {
	if list == nil {
		list = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"list":     list,
		"pageInfo": map[string]any{"totalRows": total, "page": 1, "isFirstPage": true, "isLastPage": true},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
