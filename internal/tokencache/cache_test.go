package tokencache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/chacha20poly1305"
)

func newTestCache(t *testing.T, path string, opts Options) *Cache {
	t.Helper()
	opts.Path = path
	if opts.Identity == "" {
		opts.Identity = "test-host/test-user"
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_RequiresPath(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoPath) {
		t.Errorf("New() error = %v, want ErrNoPath", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	c := newTestCache(t, filepath.Join(t.TempDir(), "missing.dat"), Options{Fallback: "configured"})

	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := c.Token(); got != "configured" {
		t.Errorf("Token() = %q, want fallback %q", got, "configured")
	}
}

func TestUpdate_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "TokenCache.dat")
	ctx := context.Background()

	writer := newTestCache(t, path, Options{Secret: "s3cret", Fallback: "configured"})
	if err := writer.Update(ctx, "fresh-token"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got := writer.Token(); got != "fresh-token" {
		t.Errorf("Token() = %q, want cached token over fallback", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if bytes.Contains(data, []byte("fresh-token")) {
		t.Error("token stored in plaintext")
	}

	reader := newTestCache(t, path, Options{Secret: "s3cret"})
	if err := reader.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reader.Token(); got != "fresh-token" {
		t.Errorf("Token() after Load = %q, want fresh-token", got)
	}
}

func TestLoad_WrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TokenCache.dat")

	tests := []struct {
		name string
		opts Options
	}{
		{"different secret", Options{Secret: "other"}},
		{"different machine", Options{Secret: "s3cret", Identity: "other-host/test-user"}},
	}

	writer := newTestCache(t, path, Options{Secret: "s3cret"})
	if err := writer.Update(context.Background(), "token"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t, path, tt.opts)
			if err := c.Load(); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Load() error = %v, want ErrCorrupt", err)
			}
			if c.Token() != "" {
				t.Errorf("Token() = %q, want empty", c.Token())
			}
		})
	}
}

func TestUpdate_FileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TokenCache.dat")
	c := newTestCache(t, path, Options{})
	if err := c.Update(context.Background(), "abc123"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if headerLen != 4+1+argonSaltLen {
		t.Errorf("headerLen = %d, want %d", headerLen, 4+1+argonSaltLen)
	}
	if !bytes.HasPrefix(data, []byte("T2MQ")) {
		t.Errorf("file starts with %q, want T2MQ", data[:4])
	}
	if data[4] != fileVersion {
		t.Errorf("version byte = %d, want %d", data[4], fileVersion)
	}
	wantLen := headerLen + chacha20poly1305.NonceSizeX + len("abc123") + chacha20poly1305.Overhead
	if len(data) != wantLen {
		t.Errorf("file length = %d, want %d", len(data), wantLen)
	}
}

func TestLoad_TamperDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TokenCache.dat")
	c := newTestCache(t, path, Options{})
	if err := c.Update(context.Background(), "token"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"bad version", func(b []byte) []byte { b[len(fileMagic)] = 9; return b }},
		{"salt flipped", func(b []byte) []byte { b[len(fileMagic)+1] ^= 0xff; return b }},
		{"ciphertext flipped", func(b []byte) []byte { b[len(b)-1] ^= 0xff; return b }},
		{"truncated", func(b []byte) []byte { return b[:headerLen] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), original...))
			if err := os.WriteFile(path, data, 0o600); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			reader := newTestCache(t, path, Options{})
			if err := reader.Load(); !errors.Is(err, ErrCorrupt) {
				t.Errorf("Load() error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestUpdate_IgnoresEmptyAndUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TokenCache.dat")
	c := newTestCache(t, path, Options{})
	ctx := context.Background()

	if err := c.Update(ctx, ""); err != nil {
		t.Fatalf("Update(empty) error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("empty token wrote the file")
	}

	if err := c.Update(ctx, "token"); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	before, _ := os.ReadFile(path)

	if err := c.Update(ctx, "token"); err != nil {
		t.Fatalf("Update(unchanged) error = %v", err)
	}
	after, _ := os.ReadFile(path)

	if string(before) != string(after) {
		t.Error("unchanged token rewrote the file")
	}
}
