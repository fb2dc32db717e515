package storage

import (
	"context"
	"errors"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "plain", key: "jobs.json", want: "jobs.json"},
		{name: "leading slash", key: "/exports/a.html", want: "exports/a.html"},
		{name: "backslashes", key: `exports\a.html`, want: "exports/a.html"},
		{name: "dot slash", key: "./a/../b.json", want: "b.json"},
		{name: "escape", key: "../etc/passwd", wantErr: true},
		{name: "empty", key: "  ", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) expected error", tc.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitizeKey(%q) error: %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}

func TestFileStoreWriteRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Read(ctx, "missing.json"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("Read missing err = %v, want ErrNotExist", err)
	}
	key, err := store.Write(ctx, "nested/data.json", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "nested/data.json" {
		t.Fatalf("key = %q", key)
	}
	got, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("Read = %s", got)
	}
}
