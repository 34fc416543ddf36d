package config

import "git.home.luguber.info/inful/docsnap/internal/output"

// ReadOptions turns the output section into Output Reader options for builder.
func (o OutputConfig) ReadOptions(builder string) output.ReadOptions {
	return output.ReadOptions{
		Builder:      builder,
		Encoding:     o.Encoding,
		Mode:         output.Mode(o.Mode),
		RegionClass:  o.RegionClass,
		Replacements: o.ReplacementPairs(),
	}
}

// ReplacementPairs returns the configured replacements in order. They apply
// to page fragments and serialized document trees alike.
func (o OutputConfig) ReplacementPairs() output.Replacements {
	reps := make(output.Replacements, 0, len(o.Replacements))
	for _, r := range o.Replacements {
		reps = append(reps, output.Replacement{Find: r.Find, Replace: r.Replace})
	}
	return reps
}
