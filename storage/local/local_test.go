package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/spindle/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestStorage_UploadDownload(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.Upload(ctx, "reports/performance.csv", strings.NewReader("a,b\n1,2\n")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	// Upload replaces existing objects.
	if err := s.Upload(ctx, "reports/performance.csv", strings.NewReader("a,b\n3,4\n")); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	rc, err := s.Download(ctx, "reports/performance.csv")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "a,b\n3,4\n" {
		t.Errorf("expected replaced content, got %q", data)
	}
}

func TestStorage_DownloadMissing(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Download(context.Background(), "missing.csv")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_ExistsDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "sdf/1/0/SDFLineItem.csv")
	if err != nil || ok {
		t.Fatalf("expected missing object, got %v %v", ok, err)
	}
	_ = s.Upload(ctx, "sdf/1/0/SDFLineItem.csv", strings.NewReader("x"))
	if ok, _ := s.Exists(ctx, "sdf/1/0/SDFLineItem.csv"); !ok {
		t.Error("expected object to exist")
	}
	if err := s.Delete(ctx, "sdf/1/0/SDFLineItem.csv"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "sdf/1/0/SDFLineItem.csv"); err != nil {
		t.Errorf("expected delete of missing object to succeed, got %v", err)
	}
	if ok, _ := s.Exists(ctx, "sdf/1/0/SDFLineItem.csv"); ok {
		t.Error("expected object to be gone")
	}
}

func TestStorage_List(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	for _, p := range []string{"sdf/1/1/SDFCampaign.csv", "sdf/1/0/SDFLineItem.csv", "sdf/2/0/SDFAd.csv", "reports/r.csv"} {
		if err := s.Upload(ctx, p, strings.NewReader("x")); err != nil {
			t.Fatalf("upload %s: %v", p, err)
		}
	}

	files, err := s.List(ctx, "sdf/1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	want := []string{"sdf/1/0/SDFLineItem.csv", "sdf/1/1/SDFCampaign.csv"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}

	empty, err := s.List(ctx, "nothing/")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty listing, got %v %v", empty, err)
	}
}

func TestStorage_URL(t *testing.T) {
	s := newTestStorage(t)
	u, err := s.URL(context.Background(), "reports/r.csv")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "/reports/r.csv") {
		t.Errorf("unexpected url %q", u)
	}
}

func TestStorage_RejectsEscape(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Upload(context.Background(), "../outside.csv", strings.NewReader("x")); err == nil {
		t.Error("expected error for path outside base directory")
	}
}
