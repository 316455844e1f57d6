package metals

import "smeltingmetal.dev/internal/sim/ident"

// Properties is a resolved metal or gem. Zero IDs are absent slots; optional slots
// that fell back hold a shared mod item instead.
type Properties struct {
	Kind ContentKind
	Name string

	Primary  ident.ID
	Block    ident.ID
	Raw      ident.ID
	RawBlock ident.ID
	Nugget   ident.ID
	Crushed  ident.ID
	Bucket   ident.ID
	Fluid    ident.ID

	ItemResults  []ShapeResult
	BlockResults []ShapeResult

	Color int
}

// ShapeResult is the item a record produces in one shape.
type ShapeResult struct {
	Shape string
	Item  ident.ID
}

func (p Properties) ItemResult(shape string) (ident.ID, bool) {
	return findResult(p.ItemResults, shape)
}

func (p Properties) BlockResult(shape string) (ident.ID, bool) {
	return findResult(p.BlockResults, shape)
}

func findResult(rs []ShapeResult, shape string) (ident.ID, bool) {
	for _, r := range rs {
		if r.Shape == shape {
			return r.Item, true
		}
	}
	return ident.ID{}, false
}

func (p Properties) clone() Properties {
	out := p
	out.ItemResults = append([]ShapeResult(nil), p.ItemResults...)
	out.BlockResults = append([]ShapeResult(nil), p.BlockResults...)
	return out
}
