package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveRoundTrip(t *testing.T) {
	data, err := Archive([]File{
		{Name: "post.html", Data: []byte("<h1>Hi</h1>")},
		{Name: "metadata.json", Data: []byte(`{"a":1}`)},
	})
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "post.html" || zr.File[1].Name != "metadata.json" {
		t.Fatalf("entries = %+v", zr.File)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "<h1>Hi</h1>" {
		t.Fatalf("body = %q", body)
	}
}

func TestArchiveRejectsBadNames(t *testing.T) {
	if _, err := Archive([]File{{Name: ""}}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := Archive([]File{{Name: "a"}, {Name: "a"}}); err == nil {
		t.Fatal("expected error for duplicate name")
	}
}
