package engine

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const stateFile = ".doctrees/environment.yaml"

// buildState is persisted between builds so unchanged documents are not rewritten.
type buildState struct {
	Builders map[string]builderState `yaml:"builders"`
}

type builderState struct {
	Config string            `yaml:"config"`
	Docs   map[string]string `yaml:"docs"`
}

// loadState reads saved state. Missing or unreadable state means "rebuild everything".
func loadState(outDir string) buildState {
	st := buildState{Builders: map[string]builderState{}}
	// #nosec G304 -- fixed name below the build directory
	data, err := os.ReadFile(filepath.Join(outDir, stateFile))
	if err != nil {
		return st
	}
	if err := yaml.Unmarshal(data, &st); err != nil || st.Builders == nil {
		return buildState{Builders: map[string]builderState{}}
	}
	return st
}

func saveState(outDir string, st buildState) error {
	path := filepath.Join(outDir, stateFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// outdated reports whether doc must be written again.
func (b builderState) outdated(doc, fingerprint, configFingerprint string, sameDocSet bool) bool {
	if !sameDocSet || b.Config != configFingerprint {
		return true
	}
	prev, ok := b.Docs[doc]
	return !ok || prev != fingerprint
}

func sameKeys(prev map[string]string, docs []string) bool {
	if len(prev) != len(docs) {
		return false
	}
	for _, d := range docs {
		if _, ok := prev[d]; !ok {
			return false
		}
	}
	return true
}
