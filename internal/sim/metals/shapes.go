package metals

import "strings"

// Shape is a result shape and the suffix keywords that identify it.
type Shape struct {
	Key      string
	Synonyms []string
}

// ShapeMap keeps shapes in definition order; classification and result lookup
// both take the first match.
type ShapeMap []Shape

// ParseShapeDefinitions parses "key[=syn1,syn2,...]" entries. A key without
// synonyms is its own only synonym. Repeated keys keep the first entry.
func ParseShapeDefinitions(defs []string) ShapeMap {
	out := make(ShapeMap, 0, len(defs))
	seen := map[string]bool{}
	for _, def := range defs {
		key, rest, hasSyn := strings.Cut(def, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || seen[key] {
			continue
		}
		var syns []string
		if hasSyn {
			for _, s := range strings.Split(rest, ",") {
				s = strings.ToLower(strings.TrimSpace(s))
				if s != "" {
					syns = append(syns, s)
				}
			}
		}
		if len(syns) == 0 {
			syns = []string{key}
		}
		seen[key] = true
		out = append(out, Shape{Key: key, Synonyms: syns})
	}
	return out
}

func (m ShapeMap) Keys() []string {
	out := make([]string, len(m))
	for i, s := range m {
		out[i] = s.Key
	}
	return out
}

func (m ShapeMap) Has(key string) bool {
	_, ok := m.Synonyms(key)
	return ok
}

func (m ShapeMap) Synonyms(key string) ([]string, bool) {
	for _, s := range m {
		if s.Key == key {
			return s.Synonyms, true
		}
	}
	return nil, false
}

// Classify returns the first shape with a synonym contained in path.
func (m ShapeMap) Classify(path string) (string, bool) {
	p := strings.ToLower(path)
	for _, s := range m {
		for _, syn := range s.Synonyms {
			if strings.Contains(p, syn) {
				return s.Key, true
			}
		}
	}
	return "", false
}

