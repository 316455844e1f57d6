package ident

import (
	"fmt"
	"strings"
)

// DefaultNamespace is assumed for identifiers written without a namespace prefix.
const DefaultNamespace = "minecraft"

// ID is a namespaced reference to a catalog entry ("namespace:path").
type ID struct {
	Namespace string
	Path      string
}

// Kind selects one of the host catalogs.
type Kind int

const (
	KindItem Kind = iota + 1
	KindBlock
	KindFluid
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindBlock:
		return "block"
	case KindFluid:
		return "fluid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func New(namespace, path string) ID {
	return ID{Namespace: namespace, Path: path}
}

// Parse splits "namespace:path". A missing namespace becomes DefaultNamespace.
func Parse(s string) ID {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		ns := s[:i]
		if ns == "" {
			ns = DefaultNamespace
		}
		return ID{Namespace: ns, Path: s[i+1:]}
	}
	return ID{Namespace: DefaultNamespace, Path: s}
}

// StripNamespace returns the part after the first colon, or s unchanged.
func StripNamespace(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (id ID) IsZero() bool { return id.Path == "" }

func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.Namespace + ":" + id.Path
}

func (id ID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ID) UnmarshalText(b []byte) error {
	*id = Parse(string(b))
	return nil
}
