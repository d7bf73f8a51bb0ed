package storage

import "strings"

type namespaced struct {
	inner  Store
	prefix string
}

// Namespaced scopes every key of s to one character.
func Namespaced(s Store, character string) Store {
	return &namespaced{inner: s, prefix: CharacterKey(character) + "-"}
}

// CharacterKey sanitizes a character name for use in keys.
func CharacterKey(character string) string {
	key := Sanitize(strings.TrimSpace(character))
	if key == "" {
		return "default"
	}
	return key
}

// Sanitize replaces every byte outside [A-Za-z0-9._-] with '_'.
func Sanitize(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}

func (n *namespaced) Get(key string) ([]byte, error)    { return n.inner.Get(n.prefix + key) }
func (n *namespaced) Set(key string, data []byte) error { return n.inner.Set(n.prefix+key, data) }
func (n *namespaced) Remove(key string) error           { return n.inner.Remove(n.prefix + key) }
