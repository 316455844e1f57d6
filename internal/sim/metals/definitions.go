package metals

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"smeltingmetal.dev/internal/sim/ident"
)

var (
	ErrMalformedDefinition = errors.New("malformed definition")
	ErrMissingRequired     = errors.New("missing required item")
	ErrDuplicateName       = errors.New("duplicate name")
)

// DefaultColor is used when a definition carries no color override.
const DefaultColor = 0xFFFFFF

type ContentKind uint8

const (
	KindMetal ContentKind = iota + 1
	KindGem
)

func (k ContentKind) String() string {
	switch k {
	case KindMetal:
		return "metal"
	case KindGem:
		return "gem"
	default:
		return fmt.Sprintf("content_kind(%d)", uint8(k))
	}
}

// Definition is a parsed definition string with every dependent path derived.
// For gems Primary is the gem item and Nugget the shard; the raw, crushed, bucket
// and fluid paths stay empty.
type Definition struct {
	Kind ContentKind
	Name string

	Primary  string
	Block    string
	Raw      string
	RawBlock string
	Nugget   string
	Crushed  string
	Bucket   string
	Fluid    string
	Color    int

	// Unknown lists override keys that were not recognised.
	Unknown []string
}

// ParseDefinition parses "name[,key=value]*". The namespace prefix of name is dropped.
func ParseDefinition(kind ContentKind, def string) (Definition, error) {
	parts := strings.Split(def, ",")
	name := strings.ToLower(ident.StripNamespace(strings.TrimSpace(parts[0])))
	if name == "" {
		return Definition{}, fmt.Errorf("%w: %q: empty name", ErrMalformedDefinition, def)
	}

	d := Definition{Kind: kind, Name: name, Color: DefaultColor}
	switch kind {
	case KindMetal:
		d.Primary = name + "_ingot"
		d.Block = name + "_block"
		d.Raw = "raw_" + name
		d.RawBlock = "raw_" + name + "_block"
		d.Nugget = name + "_nugget"
		d.Crushed = "crushed_raw_" + name
		d.Bucket = "molten_" + name + "_bucket"
		d.Fluid = "molten_" + name
	case KindGem:
		d.Primary = name
		d.Block = name + "_block"
		d.Nugget = name + "_shard"
	default:
		return Definition{}, fmt.Errorf("%w: %q: unknown kind %s", ErrMalformedDefinition, def, kind)
	}

	for _, tok := range parts[1:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, value, ok := strings.Cut(tok, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return Definition{}, fmt.Errorf("%w: %q: bad token %q", ErrMalformedDefinition, def, tok)
		}
		if key == "color" {
			c, err := parseColor(value)
			if err != nil {
				return Definition{}, fmt.Errorf("%w: %q: %v", ErrMalformedDefinition, def, err)
			}
			d.Color = c
			continue
		}
		slot := d.slot(key)
		if slot == nil {
			d.Unknown = append(d.Unknown, key)
			continue
		}
		*slot = value
	}
	return d, nil
}

func (d *Definition) slot(key string) *string {
	if d.Kind == KindGem {
		switch key {
		case "gem":
			return &d.Primary
		case "block":
			return &d.Block
		case "shard":
			return &d.Nugget
		}
		return nil
	}
	switch key {
	case "ingot":
		return &d.Primary
	case "block":
		return &d.Block
	case "raw":
		return &d.Raw
	case "raw_block":
		return &d.RawBlock
	case "nugget":
		return &d.Nugget
	case "crushed":
		return &d.Crushed
	case "bucket":
		return &d.Bucket
	case "molten_fluid":
		return &d.Fluid
	}
	return nil
}

func parseColor(v string) (int, error) {
	v = strings.TrimPrefix(v, "#")
	c, err := strconv.ParseUint(v, 16, 32)
	if err != nil || c > 0xFFFFFF {
		return 0, fmt.Errorf("bad color %q", v)
	}
	return int(c), nil
}
