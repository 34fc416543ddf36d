package output

import "strings"

// Replacement is a literal find/replace pair.
type Replacement struct {
	Find    string
	Replace string
}

// Replacements are applied in order; each pair runs exactly once over the
// output of the previous one.
type Replacements []Replacement

// Apply runs every replacement over s.
func (r Replacements) Apply(s string) string {
	for _, rep := range r {
		if rep.Find == "" {
			continue
		}
		s = strings.ReplaceAll(s, rep.Find, rep.Replace)
	}
	return s
}

// Pairs builds Replacements from alternating find/replace strings.
func Pairs(kv ...string) Replacements {
	out := make(Replacements, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Replacement{Find: kv[i], Replace: kv[i+1]})
	}
	return out
}
