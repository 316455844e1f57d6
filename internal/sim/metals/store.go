package metals

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/ident"
	"smeltingmetal.dev/internal/sim/modcontent"
)

// Store holds the resolved metal and gem records for one load cycle.
type Store struct {
	log      *zap.Logger
	resolver *Resolver
	content  *modcontent.Content

	mu          sync.RWMutex
	initialized bool
	records     map[string]Properties
	order       []string

	itemShapes    ShapeMap
	blockShapes   ShapeMap
	blacklist     []string
	blockKeywords []string
	intermediate  []string
}

// InitResult summarises one Init call.
type InitResult struct {
	Rebuilt  bool
	Metals   int
	Gems     int
	Rejected []Rejection
}

type Rejection struct {
	Kind       ContentKind
	Definition string
	Err        error
}

func NewStore(cat Catalog, content *modcontent.Content, log *zap.Logger) *Store {
	return &Store{
		log:      logging.OrNop(log).With(zap.String("component", "metals")),
		resolver: NewResolver(cat),
		content:  content,
		records:  map[string]Properties{},
	}
}

func (s *Store) Resolver() *Resolver { return s.resolver }

// Init rebuilds the store from cfg unless it is already initialized for this
// load cycle. Malformed or unresolvable definitions are logged and skipped.
func (s *Store) Init(cfg config.Config) InitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return InitResult{Metals: s.countLocked(KindMetal), Gems: s.countLocked(KindGem)}
	}

	s.records = map[string]Properties{}
	s.order = nil
	s.itemShapes = ParseShapeDefinitions(cfg.Metals.ItemResultDefinitions)
	s.blockShapes = ParseShapeDefinitions(cfg.Metals.BlockResultDefinitions)
	s.blacklist = append([]string(nil), cfg.Metals.BlacklistKeywords...)
	s.blockKeywords = append([]string(nil), cfg.Metals.BlockKeywords...)
	s.intermediate = append([]string(nil), cfg.Metals.IntermediateKeywords...)

	res := InitResult{Rebuilt: true}
	if len(cfg.Metals.MetalDefinitions) == 0 {
		s.log.Warn("no metal definitions configured")
	}
	if len(cfg.Metals.GemDefinitions) == 0 {
		s.log.Warn("no gem definitions configured")
	}
	for _, kd := range []struct {
		kind ContentKind
		defs []string
	}{
		{KindMetal, cfg.Metals.MetalDefinitions},
		{KindGem, cfg.Metals.GemDefinitions},
	} {
		for _, def := range kd.defs {
			p, err := s.build(kd.kind, def)
			if err != nil {
				s.log.Error("definition rejected", zap.String("kind", kd.kind.String()), zap.String("definition", def), zap.Error(err))
				res.Rejected = append(res.Rejected, Rejection{Kind: kd.kind, Definition: def, Err: err})
				continue
			}
			s.records[p.Name] = p
			s.order = append(s.order, p.Name)
			s.log.Info("record created", zap.String("kind", kd.kind.String()), zap.String("name", p.Name))
		}
	}

	res.Metals = s.countLocked(KindMetal)
	res.Gems = s.countLocked(KindGem)
	s.initialized = true
	return res
}

// Reset marks the store stale; the next Init rebuilds it.
func (s *Store) Reset() {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Store) build(kind ContentKind, def string) (Properties, error) {
	d, err := ParseDefinition(kind, def)
	if err != nil {
		return Properties{}, err
	}
	for _, k := range d.Unknown {
		s.log.Warn("unknown definition key ignored", zap.String("name", d.Name), zap.String("key", k))
	}
	if _, dup := s.records[d.Name]; dup {
		return Properties{}, fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
	}
	return s.resolve(d)
}

func (s *Store) resolve(d Definition) (Properties, error) {
	r := s.resolver
	p := Properties{Kind: d.Kind, Name: d.Name, Color: d.Color}

	primary, hasPrimary := r.Resolve(ident.KindItem, d.Primary)
	block, hasBlock := r.Resolve(ident.KindBlock, d.Block)
	if !hasPrimary && !hasBlock {
		return Properties{}, fmt.Errorf("%w: %s %q (primary: %s, block: %s)", ErrMissingRequired, d.Kind, d.Name, d.Primary, d.Block)
	}
	p.Primary = primary
	p.Block = block

	switch d.Kind {
	case KindMetal:
		if hasPrimary {
			p.Raw = r.ResolveOrDefault(ident.KindItem, d.Raw, s.content.DefaultRaw())
			p.Nugget = r.ResolveOrDefault(ident.KindItem, d.Nugget, s.content.DefaultNugget())
			p.Crushed = r.ResolveOrDefault(ident.KindItem, d.Crushed, p.Raw)
		}
		if hasBlock {
			p.RawBlock = r.ResolveOrDefault(ident.KindBlock, d.RawBlock, s.content.DefaultRawBlock())
			p.Bucket = r.ResolveOrDefault(ident.KindItem, d.Bucket, s.content.MoltenBucket())
			p.Fluid, _ = r.Resolve(ident.KindFluid, d.Fluid)
		}
	case KindGem:
		p.Nugget, _ = r.Resolve(ident.KindItem, d.Nugget)
	}

	p.ItemResults = r.resolveShapes(d.Name, s.itemShapes)
	p.BlockResults = r.resolveShapes(d.Name, s.blockShapes)
	return p, nil
}

func (s *Store) countLocked(kind ContentKind) int {
	n := 0
	for _, p := range s.records {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Store) Get(name string) (Properties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[name]
	if !ok {
		return Properties{}, false
	}
	return p.clone(), true
}

func (s *Store) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[name]
	return ok
}

// All returns every record, metals before gems, in definition order.
func (s *Store) All() []Properties {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Properties, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.records[name].clone())
	}
	return out
}

func (s *Store) Metals() []Properties { return s.ofKind(KindMetal) }
func (s *Store) Gems() []Properties   { return s.ofKind(KindGem) }

func (s *Store) ofKind(kind ContentKind) []Properties {
	var out []Properties
	for _, p := range s.All() {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// ReverseLookupByIngot returns the record whose primary item is id.
func (s *Store) ReverseLookupByIngot(id ident.ID) (string, bool) {
	if id.IsZero() {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.order {
		if s.records[name].Primary == id {
			return name, true
		}
	}
	return "", false
}

// ContentKeyFromPath classifies an item path: blacklisted paths have no key,
// otherwise the first metal (then gem, if includeGems) whose name is contained
// in the lowercased path wins.
func (s *Store) ContentKeyFromPath(path string, includeGems bool) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := strings.ToLower(path)
	if containsAny(p, s.blacklist) {
		return "", false
	}
	return s.matchLocked(p, includeGems)
}

// MatchContentKey is ContentKeyFromPath without the blacklist.
func (s *Store) MatchContentKey(path string, includeGems bool) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matchLocked(strings.ToLower(path), includeGems)
}

func (s *Store) matchLocked(p string, includeGems bool) (string, bool) {
	for _, kind := range []ContentKind{KindMetal, KindGem} {
		if kind == KindGem && !includeGems {
			break
		}
		for _, name := range s.order {
			if s.records[name].Kind == kind && strings.Contains(p, name) {
				return name, true
			}
		}
	}
	return "", false
}

// ShapeKeyFromPath returns the shape an item path represents, or false for
// blacklisted or unrecognised paths.
func (s *Store) ShapeKeyFromPath(path string, isBlock bool) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := strings.ToLower(path)
	if containsAny(p, s.blacklist) {
		return "", false
	}
	if isBlock {
		return s.blockShapes.Classify(p)
	}
	return s.itemShapes.Classify(p)
}

// IsBlockPath reports whether path names a block-scale form.
func (s *Store) IsBlockPath(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return containsAny(strings.ToLower(path), s.blockKeywords)
}

func (s *Store) ItemShapes() ShapeMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemShapes
}

func (s *Store) BlockShapes() ShapeMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blockShapes
}

func (s *Store) Blacklist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.blacklist...)
}

func (s *Store) IntermediateKeywords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.intermediate...)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
