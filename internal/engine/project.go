package engine

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// ProjectFile is the optional per-project settings file in the source root.
const ProjectFile = "conf.yaml"

// Project holds per-source-directory settings.
type Project struct {
	Name           string `yaml:"project"`
	RootDoc        string `yaml:"root_doc"`
	OutputEncoding string `yaml:"output_encoding"`
	Highlight      *bool  `yaml:"highlight"`
	Copyright      string `yaml:"copyright"`
}

// HighlightEnabled reports whether fenced code gets highlight markup.
func (p Project) HighlightEnabled() bool {
	return p.Highlight == nil || *p.Highlight
}

// LoadProject reads conf.yaml from srcDir, applies overrides and defaults.
// A missing file yields the defaults.
func LoadProject(srcDir string, overrides map[string]any) (Project, []byte, error) {
	raw := map[string]any{}
	data, err := os.ReadFile(filepath.Join(srcDir, ProjectFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Project{}, nil, errors.WrapError(err, errors.CategoryConfig, "invalid project file").
				WithContext("path", filepath.Join(srcDir, ProjectFile)).
				Build()
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case !os.IsNotExist(err):
		return Project{}, nil, errors.WrapError(err, errors.CategoryFileSystem, "read project file").Build()
	}

	for k, v := range overrides {
		raw[k] = v
	}

	// Round trip through YAML so overrides and file values share one decoder;
	// the merged bytes double as the configuration fingerprint input.
	merged, err := yaml.Marshal(raw)
	if err != nil {
		return Project{}, nil, errors.WrapError(err, errors.CategoryConfig, "encode project settings").Build()
	}
	var p Project
	if err := yaml.Unmarshal(merged, &p); err != nil {
		return Project{}, nil, errors.WrapError(err, errors.CategoryConfig, "invalid project override").Build()
	}

	if p.Name == "" {
		p.Name = "Project"
	}
	if p.RootDoc == "" {
		p.RootDoc = "index"
	}
	if p.OutputEncoding == "" {
		p.OutputEncoding = "utf-8"
	}
	return p, merged, nil
}
