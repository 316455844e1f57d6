package recipes

import (
	"fmt"

	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/metals"
	"smeltingmetal.dev/internal/sim/modcontent"
)

const (
	smeltingTime      = 200
	blastingTime      = 100
	meltingExperience = 0.7
	blockMultiplier   = 2

	crushingSecondaryChance = 0.1
	nuggetsPerGroup         = 9
)

// Addition is a synthesized recipe and the rule that produced it.
type Addition struct {
	Rule    Rule
	Content string
	Recipe  *Recipe
}

// Skip records a recipe that could not be built.
type Skip struct {
	Rule   Rule
	Input  string
	Reason string
}

// Synthesizer builds the replacement recipes for the current store.
type Synthesizer struct {
	log     *zap.Logger
	store   *metals.Store
	content *modcontent.Content
	cat     metals.Catalog
	cfg     config.Config
}

func NewSynthesizer(store *metals.Store, content *modcontent.Content, cat metals.Catalog, cfg config.Config, log *zap.Logger) *Synthesizer {
	return &Synthesizer{
		log:     logging.OrNop(log).With(zap.String("component", "synthesizer")),
		store:   store,
		content: content,
		cat:     cat,
		cfg:     cfg,
	}
}

// Synthesize returns every enabled replacement recipe. Identifiers depend only on
// the namespace, rule and item paths, so repeated calls yield the same ids.
func (s *Synthesizer) Synthesize() ([]Addition, []Skip) {
	b := &batch{seen: map[ident.ID]bool{}}
	f := s.cfg.Features

	if f.EnableMoldRecipes {
		s.molds(b)
	}
	if f.EnableMeltingRecipeReplacement {
		s.melting(b)
	}
	if f.EnableCrushingRecipeReplacement && s.cfg.CrushingAvailable() {
		s.crushing(b)
	}
	if f.EnableNuggetRecipeReplacement {
		s.nuggetAssembly(b)
	}
	if f.EnableGemRecipeReplacement {
		s.shardAssembly(b)
	}

	for _, sk := range b.skips {
		s.log.Warn("recipe skipped", zap.String("rule", string(sk.Rule)), zap.String("input", sk.Input), zap.String("reason", sk.Reason))
	}
	return b.adds, b.skips
}

type batch struct {
	adds  []Addition
	skips []Skip
	seen  map[ident.ID]bool
}

func (b *batch) add(rule Rule, content string, r *Recipe) {
	if b.seen[r.ID] {
		b.skip(rule, r.ID.String(), "duplicate recipe id")
		return
	}
	if err := r.Validate(); err != nil {
		b.skip(rule, r.ID.String(), err.Error())
		return
	}
	b.seen[r.ID] = true
	b.adds = append(b.adds, Addition{Rule: rule, Content: content, Recipe: r})
}

func (b *batch) skip(rule Rule, input, reason string) {
	b.skips = append(b.skips, Skip{Rule: rule, Input: input, Reason: reason})
}

func (s *Synthesizer) id(format string, args ...any) ident.ID {
	return ident.New(s.cfg.Namespace, fmt.Sprintf(format, args...))
}

// metalSources lists foreign catalog items that classify to a metal record.
func (s *Synthesizer) metalSources() []source {
	var out []source
	for _, id := range s.cat.All(ident.KindItem) {
		if id.Namespace == s.cfg.Namespace {
			continue
		}
		name, ok := s.store.ContentKeyFromPath(id.Path, false)
		if !ok {
			continue
		}
		p, ok := s.store.Get(name)
		if !ok || p.Kind != metals.KindMetal {
			continue
		}
		out = append(out, source{item: id, props: p, blockPath: s.store.IsBlockPath(id.Path)})
	}
	return out
}

type source struct {
	item      ident.ID
	props     metals.Properties
	blockPath bool
}

func (s *Synthesizer) melting(b *batch) {
	for _, src := range s.metalSources() {
		p := src.props
		isBlock := p.Primary.IsZero() || (!p.Block.IsZero() && src.blockPath)

		out := s.content.MoltenMetal()
		if isBlock {
			out = s.content.MoltenMetalBlock()
		}
		if !s.cat.Has(ident.KindItem, out) {
			b.skip(RuleMelting, src.item.String(), "result "+out.String()+" not in catalog")
			continue
		}
		result := s.content.NewStack(out, 1)
		result.SetContent(p.Name, s.store.Exists)

		mult := 1
		if isBlock {
			mult = blockMultiplier
		}
		in := []Ingredient{{src.item}}
		b.add(RuleMelting, p.Name, &Recipe{
			ID:          s.id("smelting_%s_%s", src.item.Namespace, src.item.Path),
			Type:        TypeSmelting,
			Ingredients: in,
			Result:      result,
			CookingTime: smeltingTime * mult,
			Experience:  meltingExperience * float64(mult),
		})
		b.add(RuleMelting, p.Name, &Recipe{
			ID:          s.id("blasting_%s_%s", src.item.Namespace, src.item.Path),
			Type:        TypeBlasting,
			Ingredients: []Ingredient{{src.item}},
			Result:      result.Clone(),
			CookingTime: blastingTime * mult,
			Experience:  meltingExperience * float64(mult),
		})
	}
}

func (s *Synthesizer) crushing(b *batch) {
	for _, src := range s.metalSources() {
		p := src.props
		if p.Crushed.IsZero() {
			continue
		}
		if p.Crushed == src.item {
			continue
		}
		count := 1
		if src.blockPath {
			count = nuggetsPerGroup
		}
		result := s.content.NewStack(p.Crushed, count)
		result.SetContent(p.Name, s.store.Exists)
		b.add(RuleCrushing, p.Name, &Recipe{
			ID:          s.id("crushing/%s_%s_to_%s", src.item.Namespace, src.item.Path, p.Crushed.Path),
			Type:        TypeCrushing,
			Ingredients: []Ingredient{{src.item}},
			Result:      result,
			Outputs:     []Output{{Stack: result.Clone(), Chance: crushingSecondaryChance}},
		})
	}
}

func (s *Synthesizer) nuggetAssembly(b *batch) {
	useCrushed := s.cfg.CrushingAvailable()
	for _, p := range s.store.Metals() {
		if p.Primary.IsZero() {
			continue
		}
		group := p.Raw
		if useCrushed && !p.Crushed.IsZero() {
			group = p.Crushed
		}
		if s.content.IsSentinel(p.Nugget) || s.content.IsSentinel(group) {
			b.skip(RuleNuggetAssembly, p.Name, "nugget or group is a shared fallback item")
			continue
		}
		s.assembly(b, RuleNuggetAssembly, p.Name, p.Nugget, group)
	}
}

func (s *Synthesizer) shardAssembly(b *batch) {
	for _, p := range s.store.Gems() {
		if p.Primary.IsZero() || p.Nugget.IsZero() {
			continue
		}
		s.assembly(b, RuleShardAssembly, p.Name, p.Nugget, p.Primary)
	}
}

// assembly adds the pair 1 group -> 9 pieces (shapeless) and 9 pieces -> 1 group
// (shaped 3x3).
func (s *Synthesizer) assembly(b *batch, rule Rule, name string, piece, group ident.ID) {
	if piece.IsZero() || group.IsZero() {
		b.skip(rule, name, "missing piece or group item")
		return
	}
	pieces := s.content.NewStack(piece, nuggetsPerGroup)
	pieces.SetContent(name, s.store.Exists)
	b.add(rule, name, &Recipe{
		ID:          s.id("%s_from_%s_%s", piece.Path, group.Namespace, group.Path),
		Type:        TypeCraftingShapeless,
		Ingredients: []Ingredient{{group}},
		Result:      pieces,
	})

	grid := make([]Ingredient, 9)
	for i := range grid {
		grid[i] = Ingredient{piece}
	}
	whole := s.content.NewStack(group, 1)
	whole.SetContent(name, s.store.Exists)
	b.add(rule, name, &Recipe{
		ID:          s.id("%s_from_%s_%s", group.Path, piece.Namespace, piece.Path),
		Type:        TypeCraftingShaped,
		Ingredients: grid,
		Width:       3,
		Height:      3,
		Result:      whole,
	})
}
