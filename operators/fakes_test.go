package operators

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/storage"
	"github.com/kbukum/spindle/warehouse"
)

type fakeReports struct {
	mu       sync.Mutex
	queryID  int64
	reportID int64
	states   []dv360.Report
	polls    int
	created  [][]byte
	deleted  []int64
	err      error
}

func (f *fakeReports) CreateQuery(_ context.Context, def []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, def)
	return f.queryID, nil
}

func (f *fakeReports) RunQuery(_ context.Context, queryID int64) (int64, error) {
	if queryID != f.queryID {
		return 0, fmt.Errorf("unknown query %d", queryID)
	}
	return f.reportID, nil
}

func (f *fakeReports) ReportStatus(_ context.Context, queryID, reportID int64) (dv360.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if queryID != f.queryID || reportID != f.reportID {
		return dv360.Report{}, fmt.Errorf("unknown report %d/%d", queryID, reportID)
	}
	i := min(f.polls, len(f.states)-1)
	f.polls++
	return f.states[i], nil
}

func (f *fakeReports) DeleteQuery(_ context.Context, queryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, queryID)
	return nil
}

type fakeFetcher map[string]string

func (f fakeFetcher) Fetch(_ context.Context, url string) (io.ReadCloser, error) {
	body, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("no body for %s", url)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// memStore is an ObjectStore whose URLs use scheme, e.g. "gs" or "file".
type memStore struct {
	mu      sync.Mutex
	scheme  string
	objects map[string][]byte
}

func newMemStore(scheme string) *memStore {
	return &memStore{scheme: scheme, objects: make(map[string][]byte)}
}

func (s *memStore) Upload(_ context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *memStore) Download(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) URL(_ context.Context, path string) (string, error) {
	return s.scheme + "://bucket/" + path, nil
}

type fakeSDF struct {
	files    map[string]string
	requests []dv360.SDFRequest
}

func (f *fakeSDF) DownloadSDF(_ context.Context, req dv360.SDFRequest, fn func(dv360.SDFFile) error) error {
	f.requests = append(f.requests, req)
	for _, name := range []string{"SDF-Campaigns.csv", "SDF-LineItems.csv"} {
		body, ok := f.files[name]
		if !ok {
			continue
		}
		table, _ := dv360.TableName(name)
		if err := fn(dv360.SDFFile{Name: name, Table: table, Body: strings.NewReader(body)}); err != nil {
			return err
		}
	}
	return nil
}

type loadedJob struct {
	req  warehouse.LoadRequest
	body string
}

type fakeWarehouse struct {
	mu      sync.Mutex
	loads   []loadedJob
	queries []warehouse.QueryRequest
	err     error
}

func (f *fakeWarehouse) LoadCSV(_ context.Context, req warehouse.LoadRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if f.err != nil {
		return f.err
	}
	job := loadedJob{req: req}
	if req.Source != nil {
		data, err := io.ReadAll(req.Source)
		if err != nil {
			return err
		}
		job.body = string(data)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, job)
	return nil
}

func (f *fakeWarehouse) Query(_ context.Context, req warehouse.QueryRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req)
	return f.err
}

func stringsReader(s string) io.Reader { return strings.NewReader(s) }
