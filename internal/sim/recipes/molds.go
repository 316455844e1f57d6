package recipes

import (
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/itemtag"
	"smeltingmetal.dev/internal/sim/metals"
	"smeltingmetal.dev/internal/sim/modcontent"
)

const (
	moldFiringTime       = 200
	moldFiringExperience = 1.4

	pathNetheriteScrap    = "netherite_scrap"
	pathNetheriteIngot    = "netherite_ingot"
	pathNetheriteTemplate = "netherite_upgrade_smithing_template"
)

// crossSlots are the edge-centre cells of a 3x3 grid.
var crossSlots = [...]int{1, 3, 5, 7}

// molds fires each clay mold into its hardened mold and upgrades it to
// netherite by crafting or smithing. Results carry the clay mold's shape.
func (s *Synthesizer) molds(b *batch) {
	r := s.store.Resolver()
	ingot, hasIngot := r.Resolve(ident.KindItem, pathNetheriteIngot)
	scrap, hasScrap := r.Resolve(ident.KindItem, pathNetheriteScrap)
	template, hasTemplate := r.Resolve(ident.KindItem, pathNetheriteTemplate)

	for _, scale := range []modcontent.Scale{modcontent.ScaleItem, modcontent.ScaleBlock} {
		shapes := s.store.ItemShapes()
		material, hasMaterial := scrap, hasScrap
		if scale == modcontent.ScaleBlock {
			shapes = s.store.BlockShapes()
			material, hasMaterial = ingot, hasIngot
		}
		defShape := ""
		if len(shapes) > 0 {
			defShape = shapes[0].Key
		}

		for _, shape := range shapes {
			clay, ok := s.content.ClayMold(scale, shape.Key)
			if !ok {
				b.skip(RuleMold, shape.Key, "no clay "+scale.String()+" mold for shape")
				continue
			}
			hardened := s.shapedMold(s.content.Mold(scale, modcontent.TierHardened), shape.Key, defShape, shapes)
			b.add(RuleMold, "", &Recipe{
				ID:          s.id("smelting_%s_%s", clay.Namespace, clay.Path),
				Type:        TypeSmelting,
				Ingredients: []Ingredient{{clay}},
				Result:      hardened,
				CookingTime: moldFiringTime,
				Experience:  moldFiringExperience,
			})

			netherite := s.shapedMold(s.content.Mold(scale, modcontent.TierNetherite), shape.Key, defShape, shapes)
			if hasMaterial {
				grid := make([]Ingredient, 9)
				for _, i := range crossSlots {
					grid[i] = Ingredient{material}
				}
				grid[4] = Ingredient{clay}
				b.add(RuleMold, "", &Recipe{
					ID:          s.id("crafting_%s_%s_netherite", clay.Namespace, clay.Path),
					Type:        TypeCraftingShaped,
					Ingredients: grid,
					Width:       3,
					Height:      3,
					Result:      netherite,
				})
			} else {
				b.skip(RuleMold, clay.String(), "netherite material not in catalog")
			}

			if hasTemplate && hasIngot {
				b.add(RuleMold, "", &Recipe{
					ID:          s.id("smithing_%s_%s", clay.Namespace, clay.Path),
					Type:        TypeSmithingTransform,
					Ingredients: []Ingredient{{template}, {clay}, {ingot}},
					Result:      netherite.Clone(),
				})
			} else {
				b.skip(RuleMold, clay.String(), "smithing template or netherite ingot not in catalog")
			}
		}
	}
}

func (s *Synthesizer) shapedMold(mold ident.ID, shape, defShape string, shapes metals.ShapeMap) itemtag.Stack {
	st := s.content.NewStack(mold, 1)
	st.SetShape(shape, defShape, shapes.Has)
	return st
}
