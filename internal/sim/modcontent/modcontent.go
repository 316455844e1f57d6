// Package modcontent describes the items the mod itself adds to the host catalog:
// molten forms, shared fallback items, and molds parameterised by tier and shape.
package modcontent

import (
	"fmt"

	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/itemtag"
)

const (
	PathMoltenMetal      = "molten_metal"
	PathMoltenMetalBlock = "molten_metal_block"
	PathMoltenBucket     = "molten_metal_bucket"
	PathMetalNugget      = "metal_nugget"
	PathRawMetal         = "raw_metal"
	PathRawMetalBlock    = "raw_metal_block"
)

type Tier uint8

const (
	TierClay Tier = iota
	TierHardened
	TierNetherite
)

func (t Tier) String() string {
	switch t {
	case TierClay:
		return "clay"
	case TierHardened:
		return "hardened"
	case TierNetherite:
		return "netherite"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

type Scale uint8

const (
	ScaleItem Scale = iota
	ScaleBlock
)

func (s Scale) String() string {
	if s == ScaleBlock {
		return "block"
	}
	return "item"
}

// Entry is one mod item. Molds carry Tier, Scale and, for clay molds, the Shape
// they were pressed with; hardened and netherite molds carry their shape as a tag.
type Entry struct {
	ID    ident.ID
	Caps  itemtag.Capability
	Block bool

	Mold  bool
	Tier  Tier
	Scale Scale
	Shape string
}

type Content struct {
	Namespace string

	entries []Entry
	byID    map[ident.ID]int
	clay    map[Scale]map[string]ident.ID
}

// New lays out the mod items for namespace. itemShapes and blockShapes are the
// configured shape keys in definition order; each gets a clay mold.
func New(namespace string, itemShapes, blockShapes []string) *Content {
	c := &Content{
		Namespace: namespace,
		byID:      map[ident.ID]int{},
		clay:      map[Scale]map[string]ident.ID{ScaleItem: {}, ScaleBlock: {}},
	}

	c.add(Entry{ID: c.id(PathMoltenMetal), Caps: itemtag.CapContent | itemtag.CapMolten})
	c.add(Entry{ID: c.id(PathMoltenMetalBlock), Caps: itemtag.CapContent | itemtag.CapMolten | itemtag.CapBlockScale, Block: true})
	c.add(Entry{ID: c.id(PathMoltenBucket), Caps: itemtag.CapContent | itemtag.CapBucket})
	c.add(Entry{ID: c.id(PathMetalNugget), Caps: itemtag.CapContent})
	c.add(Entry{ID: c.id(PathRawMetal), Caps: itemtag.CapContent})
	c.add(Entry{ID: c.id(PathRawMetalBlock), Caps: itemtag.CapContent | itemtag.CapBlockScale, Block: true})

	for _, scale := range []Scale{ScaleItem, ScaleBlock} {
		shapes := itemShapes
		if scale == ScaleBlock {
			shapes = blockShapes
		}
		for _, shape := range shapes {
			id := c.id(moldPath(scale, TierClay, shape))
			if c.add(Entry{ID: id, Caps: itemtag.CapMold, Block: scale == ScaleBlock, Mold: true, Tier: TierClay, Scale: scale, Shape: shape}) {
				c.clay[scale][shape] = id
			}
		}
		for _, tier := range []Tier{TierHardened, TierNetherite} {
			caps := itemtag.CapMold | itemtag.CapContent
			if scale == ScaleBlock {
				caps |= itemtag.CapBlockScale
			}
			c.add(Entry{ID: c.id(moldPath(scale, tier, "")), Caps: caps, Block: scale == ScaleBlock, Mold: true, Tier: tier, Scale: scale})
		}
	}
	return c
}

func moldPath(scale Scale, tier Tier, shape string) string {
	p := scale.String() + "_mold_" + tier.String()
	if shape != "" {
		p += "_" + shape
	}
	return p
}

func (c *Content) id(path string) ident.ID { return ident.New(c.Namespace, path) }

func (c *Content) add(e Entry) bool {
	if _, ok := c.byID[e.ID]; ok {
		return false
	}
	c.byID[e.ID] = len(c.entries)
	c.entries = append(c.entries, e)
	return true
}

func (c *Content) MoltenMetal() ident.ID      { return c.id(PathMoltenMetal) }
func (c *Content) MoltenMetalBlock() ident.ID { return c.id(PathMoltenMetalBlock) }
func (c *Content) MoltenBucket() ident.ID     { return c.id(PathMoltenBucket) }
func (c *Content) DefaultNugget() ident.ID    { return c.id(PathMetalNugget) }
func (c *Content) DefaultRaw() ident.ID       { return c.id(PathRawMetal) }
func (c *Content) DefaultRawBlock() ident.ID  { return c.id(PathRawMetalBlock) }

// IsSentinel reports whether id is one of the shared fallback items.
func (c *Content) IsSentinel(id ident.ID) bool {
	switch id {
	case c.DefaultNugget(), c.DefaultRaw(), c.DefaultRawBlock(), c.MoltenBucket():
		return true
	}
	return false
}

// ClayMold returns the clay mold pressed with shape.
func (c *Content) ClayMold(scale Scale, shape string) (ident.ID, bool) {
	id, ok := c.clay[scale][shape]
	return id, ok
}

// Mold returns the hardened or netherite mold for scale.
func (c *Content) Mold(scale Scale, tier Tier) ident.ID {
	return c.id(moldPath(scale, tier, ""))
}

func (c *Content) Lookup(id ident.ID) (Entry, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns all mod items in layout order.
func (c *Content) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Caps returns the capability tags for id; foreign items have none.
func (c *Content) Caps(id ident.ID) itemtag.Capability {
	e, ok := c.Lookup(id)
	if !ok {
		return 0
	}
	return e.Caps
}

// NewStack builds a stack of id carrying its capability tags.
func (c *Content) NewStack(id ident.ID, count int) itemtag.Stack {
	return itemtag.NewStack(id, count, c.Caps(id))
}

// Register appends the mod items to cat. Block-scale entries are also registered
// as blocks, and the molten metal as a fluid. It returns the number of new items.
func (c *Content) Register(cat *catalogs.Catalogs) int {
	n := 0
	for _, e := range c.entries {
		if cat.Items.Register(e.ID) {
			n++
		}
		if e.Block {
			cat.Blocks.Register(e.ID)
		}
	}
	cat.Fluids.Register(c.MoltenMetal())
	return n
}
