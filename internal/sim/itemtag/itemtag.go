// Package itemtag models per-stack key/value tags and the capability bits that say
// which tags a stack may carry.
package itemtag

import (
	"sort"
	"strings"

	"smeltingmetal.dev/internal/sim/ident"
)

const (
	ContentKey = "content"
	ShapeKey   = "shape"

	// DefaultContent is what an untagged content-capable stack holds.
	DefaultContent = "metal"
)

// Capability marks what a produced stack is. Only stacks with CapContent accept a
// content tag; shape tags additionally need CapMold or CapShaped.
type Capability uint8

const (
	CapContent Capability = 1 << iota
	CapMolten
	CapBucket
	CapMold
	CapBlockScale
	CapShaped
)

func (c Capability) Has(flag Capability) bool { return c&flag == flag }

func (c Capability) String() string {
	var parts []string
	for _, f := range []struct {
		c    Capability
		name string
	}{
		{CapContent, "content"},
		{CapMolten, "molten"},
		{CapBucket, "bucket"},
		{CapMold, "mold"},
		{CapBlockScale, "block"},
		{CapShaped, "shaped"},
	} {
		if c.Has(f.c) {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

type Stack struct {
	Item  ident.ID
	Count int
	Tags  map[string]string
	Caps  Capability
}

func NewStack(item ident.ID, count int, caps Capability) Stack {
	if count <= 0 {
		count = 1
	}
	return Stack{Item: item, Count: count, Caps: caps}
}

func (s Stack) IsEmpty() bool { return s.Item.IsZero() || s.Count <= 0 }

func (s Stack) GetString(key string) (string, bool) {
	v, ok := s.Tags[key]
	return v, ok
}

func (s *Stack) SetString(key, value string) {
	if s.Tags == nil {
		s.Tags = map[string]string{}
	}
	s.Tags[key] = value
}

func (s *Stack) Remove(key string) {
	delete(s.Tags, key)
	if len(s.Tags) == 0 {
		s.Tags = nil
	}
}

// Content returns the content tag or DefaultContent.
func (s Stack) Content() string {
	if v, ok := s.GetString(ContentKey); ok {
		return v
	}
	return DefaultContent
}

// SetContent tags the stack with name if it is content-capable and known(name) holds.
// The default or an unknown name clears the tag.
func (s *Stack) SetContent(name string, known func(string) bool) {
	if !s.Caps.Has(CapContent) {
		return
	}
	if name == "" || name == DefaultContent || (known != nil && !known(name)) {
		s.Remove(ContentKey)
		return
	}
	s.SetString(ContentKey, name)
}

// Shape returns the shape tag or def.
func (s Stack) Shape(def string) string {
	if v, ok := s.GetString(ShapeKey); ok {
		return v
	}
	return def
}

// SetShape tags a mold or shaped stack. Shapes equal to def, or rejected by valid, clear the tag.
func (s *Stack) SetShape(shape, def string, valid func(string) bool) {
	if !s.Caps.Has(CapMold) && !s.Caps.Has(CapShaped) {
		return
	}
	if shape == "" || shape == def || (valid != nil && !valid(shape)) {
		s.Remove(ShapeKey)
		return
	}
	s.SetString(ShapeKey, shape)
}

// Clone returns a deep copy.
func (s Stack) Clone() Stack {
	out := s
	if s.Tags != nil {
		out.Tags = make(map[string]string, len(s.Tags))
		for k, v := range s.Tags {
			out.Tags[k] = v
		}
	}
	return out
}

// TagString renders tags deterministically, e.g. "{content=iron,shape=axe}".
func (s Stack) TagString() string {
	if len(s.Tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s.Tags))
	for k := range s.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s.Tags[k])
	}
	b.WriteByte('}')
	return b.String()
}
