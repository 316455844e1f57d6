package recipes

import (
	"strings"

	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/metals"
)

type Rule string

const (
	RuleMelting        Rule = "melting"
	RuleCrushing       Rule = "crushing"
	RuleNuggetGrid     Rule = "nugget_grid"
	RuleResult         Rule = "result"
	RuleNuggetAssembly Rule = "nugget_assembly"
	RuleShardAssembly  Rule = "shard_assembly"
	RuleMold           Rule = "mold"
	RuleStale          Rule = "stale"
)

// Decision is the classifier's verdict on one recipe. Rule and Content are set
// whenever a rule matched the recipe, even if a blacklisted input kept it.
// Shape names the mold shape that produces a removed result item.
type Decision struct {
	Remove  bool
	Rule    Rule
	Content string
	Shape   string
	Reason  string
}

// Classifier decides which host recipes belong to the configured metal set.
type Classifier struct {
	store     *metals.Store
	features  config.Features
	crushing  bool
	namespace string

	results map[ident.ID]resultOwner
}

type resultOwner struct {
	name  string
	kind  metals.ContentKind
	block bool
}

func NewClassifier(store *metals.Store, cfg config.Config) *Classifier {
	c := &Classifier{
		store:     store,
		features:  cfg.Features,
		crushing:  cfg.CrushingAvailable(),
		namespace: cfg.Namespace,
		results:   map[ident.ID]resultOwner{},
	}
	for _, p := range store.All() {
		c.addResults(p, p.ItemResults, false)
		c.addResults(p, p.BlockResults, true)
	}
	return c
}

func (c *Classifier) addResults(p metals.Properties, rs []metals.ShapeResult, block bool) {
	for _, r := range rs {
		if _, taken := c.results[r.Item]; !taken {
			c.results[r.Item] = resultOwner{name: p.Name, kind: p.Kind, block: block}
		}
	}
}

// Classify marks r for removal if one of the enabled rules claims it. Recipes in
// the mod's own namespace are never classified.
func (c *Classifier) Classify(r *Recipe) Decision {
	if r == nil || r.ID.Namespace == c.namespace {
		return Decision{}
	}

	switch r.Type {
	case TypeSmelting, TypeBlasting:
		if c.features.EnableMeltingRecipeReplacement {
			if d, ok := c.decide(r, RuleMelting, false, nil); ok {
				return d
			}
		}
	case TypeCrushing:
		if c.features.EnableCrushingRecipeReplacement && c.crushing {
			if d, ok := c.decide(r, RuleCrushing, false, nil); ok {
				return d
			}
		}
	}

	if r.IsGrid(3, 3) && c.allIngredientsIntermediate(r) {
		gems := c.features.EnableGemRecipeReplacement
		if c.features.EnableNuggetRecipeReplacement || gems {
			if d, ok := c.decide(r, RuleNuggetGrid, gems, c.store.IntermediateKeywords()); ok {
				if c.kindEnabledForGrid(d.Content) {
					return d
				}
			}
		}
	}

	if c.features.EnableResultRecipeRemoval {
		if owner, ok := c.results[r.Result.Item]; ok && (owner.kind == metals.KindMetal || c.features.EnableGemRecipeReplacement) {
			shape, _ := c.store.ShapeKeyFromPath(r.Result.Item.Path, owner.block)
			return c.withBlacklist(r, Decision{Rule: RuleResult, Content: owner.name, Shape: shape}, nil)
		}
	}
	return Decision{}
}

// decide resolves the content of r's result; ok is false if no record owns it.
func (c *Classifier) decide(r *Recipe, rule Rule, includeGems bool, exempt []string) (Decision, bool) {
	name, ok := c.resultContent(r.Result.Item, includeGems)
	if !ok {
		return Decision{}, false
	}
	return c.withBlacklist(r, Decision{Rule: rule, Content: name}, exempt), true
}

func (c *Classifier) withBlacklist(r *Recipe, d Decision, exempt []string) Decision {
	if bad, ok := c.blacklistedInput(r, exempt); ok {
		d.Reason = "blacklisted input " + bad.String()
		return d
	}
	d.Remove = true
	return d
}

func (c *Classifier) kindEnabledForGrid(name string) bool {
	p, ok := c.store.Get(name)
	if !ok {
		return false
	}
	if p.Kind == metals.KindGem {
		return c.features.EnableGemRecipeReplacement
	}
	return c.features.EnableNuggetRecipeReplacement
}

// resultContent maps a result item to its record. Ingot and nugget results are
// first traced back through the ingot they belong to.
func (c *Classifier) resultContent(result ident.ID, includeGems bool) (string, bool) {
	path := strings.ToLower(result.Path)
	for _, suffix := range []string{"_ingot", "_nugget"} {
		base, ok := strings.CutSuffix(path, suffix)
		if !ok {
			continue
		}
		if ingot, ok := c.store.Resolver().Resolve(ident.KindItem, base+"_ingot"); ok {
			if name, ok := c.store.ReverseLookupByIngot(ingot); ok {
				return name, true
			}
		}
	}
	return c.store.MatchContentKey(path, includeGems)
}

func (c *Classifier) blacklistedInput(r *Recipe, exempt []string) (ident.ID, bool) {
	keywords := c.store.Blacklist()
	for _, id := range r.InputItems() {
		p := strings.ToLower(id.Path)
		for _, kw := range keywords {
			if kw == "" || contains(exempt, kw) {
				continue
			}
			if strings.Contains(p, kw) {
				return id, true
			}
		}
	}
	return ident.ID{}, false
}

func (c *Classifier) allIngredientsIntermediate(r *Recipe) bool {
	keywords := c.store.IntermediateKeywords()
	if len(r.Ingredients) == 0 || len(keywords) == 0 {
		return false
	}
	for _, in := range r.Ingredients {
		if in.IsEmpty() {
			return false
		}
		for _, id := range in {
			if !containsAnyKeyword(strings.ToLower(id.Path), keywords) {
				return false
			}
		}
	}
	return true
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
