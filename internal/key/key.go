// Package key provides the hierarchical path identifier used to name values
// across every datastore in this module. A Key is an immutable value type;
// all derivation methods return new Keys.
package key

import (
	gopath "path"
	"strings"
)

// Key names a stored value. The canonical textual form is a slash-delimited
// path with a leading slash and no trailing slash, e.g. "/users/alice".
// Equality and ordering are defined by the canonical string.
type Key struct {
	s string
}

// New builds a Key from a raw path string, normalizing it into canonical
// form. An empty string yields the root key "/".
func New(raw string) Key {
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return Key{s: gopath.Clean(raw)}
}

// Root is the top-level namespace key "/".
var Root = Key{s: "/"}

// String returns the canonical path form.
func (k Key) String() string {
	if k.s == "" {
		return "/"
	}
	return k.s
}

// Bytes returns the canonical path form as a byte slice.
func (k Key) Bytes() []byte {
	return []byte(k.String())
}

// Name returns the last path segment, or "" for the root key.
func (k Key) Name() string {
	s := k.String()
	if s == "/" {
		return ""
	}
	return s[strings.LastIndexByte(s, '/')+1:]
}

// Path returns the parent namespace: every segment but the last. The parent
// of a top-level key (and of the root itself) is the root key.
func (k Key) Path() Key {
	s := k.String()
	i := strings.LastIndexByte(s, '/')
	if i <= 0 {
		return Root
	}
	return Key{s: s[:i]}
}

// Child appends a segment to the key.
func (k Key) Child(name string) Key {
	if k.String() == "/" {
		return New("/" + name)
	}
	return New(k.String() + "/" + name)
}

// Namespaces returns the path segments in order, empty for the root key.
func (k Key) Namespaces() []string {
	s := k.String()
	if s == "/" {
		return nil
	}
	return strings.Split(s[1:], "/")
}

// Equal reports whether both keys have the same canonical form.
func (k Key) Equal(o Key) bool {
	return k.String() == o.String()
}

// Less orders keys by canonical string form.
func (k Key) Less(o Key) bool {
	return k.String() < o.String()
}

// IsAncestorOf reports whether o lives somewhere below k in the hierarchy.
// A key is not its own ancestor.
func (k Key) IsAncestorOf(o Key) bool {
	ks, os := k.String(), o.String()
	if ks == os {
		return false
	}
	if ks == "/" {
		return true
	}
	return strings.HasPrefix(os, ks+"/")
}
