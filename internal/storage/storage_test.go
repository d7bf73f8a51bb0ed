package storage

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "idlesnap.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"file":   fs,
		"sqlite": db,
		"memory": NewMemoryStore(),
	}
}

func TestBackends_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
			}
			if err := s.Set("k", []byte(`{"a":1}`)); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if err := s.Set("k", []byte(`{"a":2}`)); err != nil {
				t.Fatalf("Set overwrite: %v", err)
			}
			got, err := s.Get("k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(got) != `{"a":2}` {
				t.Errorf("Get = %s, want overwritten value", got)
			}
			if err := s.Remove("k"); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			if _, err := s.Get("k"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Remove error = %v, want ErrNotFound", err)
			}
			if err := s.Remove("k"); err != nil {
				t.Errorf("Remove of missing key: %v", err)
			}
		})
	}
}

func TestSQLite_Memory(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	if err := db.Set("x", []byte("1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := db.Get("x"); err != nil || string(got) != "1" {
		t.Errorf("Get = %q, %v", got, err)
	}
}

func TestNamespaced_IsolatesCharacters(t *testing.T) {
	mem := NewMemoryStore()
	a := Namespaced(mem, "Hero")
	b := Namespaced(mem, "Alt/../Other")

	if err := a.Set("exportData", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get("exportData"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other character sees key: err = %v", err)
	}
	if err := b.Set("exportData", []byte("b")); err != nil {
		t.Fatal(err)
	}
	got, _ := a.Get("exportData")
	if string(got) != "a" {
		t.Errorf("Hero value = %q, want a", got)
	}
	for _, k := range mem.Keys() {
		if bytes.ContainsAny([]byte(k), "/") {
			t.Errorf("unsanitized key %q", k)
		}
	}
}

func TestCharacterKey(t *testing.T) {
	cases := map[string]string{
		"Hero":       "Hero",
		"  ":         "default",
		"":           "default",
		"Sir Lancel": "Sir_Lancel",
		"a/b\\c":     "a_b_c",
	}
	for in, want := range cases {
		if got := CharacterKey(in); got != want {
			t.Errorf("CharacterKey(%q) = %q, want %q", in, got, want)
		}
	}
}

// Feature: idlesnap, Property 9: codec round-trip regardless of compression
func TestCodec_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		compress := rapid.Bool().Draw(t, "compress")
		if !compress && bytes.HasPrefix(data, []byte(compressedPrefix)) {
			t.Skip("raw blob collides with marker")
		}
		blob, err := Encode(data, compress)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got, err := Decode(blob)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("round trip = %q, want %q", got, data)
		}
	})
}

func TestWithCodec_TogglingKeepsOldBlobsReadable(t *testing.T) {
	mem := NewMemoryStore()
	on := true
	s := WithCodec(mem, func() bool { return on })

	if err := s.Set("compressed", []byte("hello hello hello")); err != nil {
		t.Fatal(err)
	}
	raw, _ := mem.Get("compressed")
	if !bytes.HasPrefix(raw, []byte(compressedPrefix)) {
		t.Fatalf("stored blob %q lacks marker", raw)
	}

	on = false
	if err := s.Set("plain", []byte("plain")); err != nil {
		t.Fatal(err)
	}
	for key, want := range map[string]string{"compressed": "hello hello hello", "plain": "plain"} {
		got, err := s.Get(key)
		if err != nil || string(got) != want {
			t.Errorf("Get(%s) = %q, %v; want %q", key, got, err, want)
		}
	}
}

func TestWithCodec_CorruptBlob(t *testing.T) {
	mem := NewMemoryStore()
	mem.Set("k", []byte(compressedPrefix+"!!!not base64"))
	s := WithCodec(mem, nil)

	_, err := s.Get("k")
	var ce *CorruptError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CorruptError", err)
	}
	if ce.Key != "k" {
		t.Errorf("Key = %q", ce.Key)
	}
}

func TestGetJSON_Corrupt(t *testing.T) {
	mem := NewMemoryStore()
	mem.Set("k", []byte("{broken"))
	var v map[string]any
	err := GetJSON(mem, "k", &v)
	var ce *CorruptError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CorruptError", err)
	}

	if err := SetJSON(mem, "k", map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(mem, "k", &v); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if v["a"] != float64(1) {
		t.Errorf("v = %v", v)
	}
}
