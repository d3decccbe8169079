package flagstore

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	codecerr "github.com/SamJakob/MageArenaFlagEditor/core/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "flag.dat")}

	payload := []byte("0.25:0.75,0.10:0.20\x00")
	if err := store.WriteFlag(payload); err != nil {
		t.Fatalf("WriteFlag error = %v", err)
	}

	got, err := store.ReadFlag()
	if err != nil {
		t.Fatalf("ReadFlag error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadFlag = %q; want %q", got, payload)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "absent.dat")}
	if _, err := store.ReadFlag(); !errors.Is(err, codecerr.ErrAccess) {
		t.Errorf("ReadFlag error = %v; want AccessError", err)
	}
}

func TestFileStoreEmptyPayload(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "flag.dat")}
	if err := store.WriteFlag(nil); err != nil {
		t.Fatalf("WriteFlag error = %v", err)
	}
	if _, err := store.ReadFlag(); !errors.Is(err, codecerr.ErrValue) {
		t.Errorf("ReadFlag error = %v; want ValueError", err)
	}
}

func TestFileStoreCreatesParentDirs(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "a", "b", "flag.dat")}
	if err := store.WriteFlag([]byte("x")); err != nil {
		t.Fatalf("WriteFlag error = %v", err)
	}
}

func TestNewSelector(t *testing.T) {
	t.Run("file selector", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flag.dat")
		store, err := New("file:" + path)
		if err != nil {
			t.Fatalf("New error = %v", err)
		}
		fs, ok := store.(*FileStore)
		if !ok {
			t.Fatalf("New returned %T; want *FileStore", store)
		}
		if fs.Path != path {
			t.Errorf("Path = %q; want %q", fs.Path, path)
		}
	})

	t.Run("unknown selector", func(t *testing.T) {
		if _, err := New("s3://bucket"); !errors.Is(err, codecerr.ErrIllegalParameter) {
			t.Errorf("New error = %v; want IllegalParameter", err)
		}
	})
}

func TestFileStoreLocation(t *testing.T) {
	store := &FileStore{Path: "/tmp/flag.dat"}
	if got := store.Location(); got != "file:/tmp/flag.dat" {
		t.Errorf("Location() = %q; want file:/tmp/flag.dat", got)
	}
}
