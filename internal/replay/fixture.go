package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/imitate/internal/registry"
	"github.com/danielpatrickdp/imitate/internal/session"
)

// #region fixture-types

// Fixture is a scripted session: the initial text, session bounds, any
// sequences the script uses, and the steps with their expected outcomes.
type Fixture struct {
	Description string              `json:"description" yaml:"description"`
	Text        string              `json:"text" yaml:"text"`
	Config      FixtureConfig       `json:"config" yaml:"config"`
	Sequences   []registry.Sequence `json:"sequences" yaml:"sequences"`
	Steps       []FixtureStep       `json:"steps" yaml:"steps"`
}

// FixtureConfig mirrors session.Config. Zero values fall back to defaults.
type FixtureConfig struct {
	ScopeSize       int   `json:"scope_size" yaml:"scope_size"`
	ArchiveSize     int   `json:"archive_size" yaml:"archive_size"`
	MinObservations int   `json:"min_observations" yaml:"min_observations"`
	Generalize      bool  `json:"generalize" yaml:"generalize"`
	Seed            int64 `json:"seed" yaml:"seed"`
}

// FixtureStep is either an explicit statement (Input) or an imitator step
// (Imitate). Reward, when set, is credited after the step runs.
type FixtureStep struct {
	ID      string `json:"id" yaml:"id"`
	Input   string `json:"input,omitempty" yaml:"input,omitempty"`
	Imitate bool   `json:"imitate,omitempty" yaml:"imitate,omitempty"`
	Reward  *int   `json:"reward,omitempty" yaml:"reward,omitempty"`
	Expect  Action `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads a fixture. ".json" files are parsed as JSON, anything
// else as YAML.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, st := range f.Steps {
		if (st.Input == "") == !st.Imitate {
			return nil, fmt.Errorf("fixture %s: step %d needs exactly one of input or imitate", path, i)
		}
		if st.ID == "" {
			f.Steps[i].ID = fmt.Sprintf("step-%d", i+1)
		}
	}
	return &f, nil
}

// Apply overlays the bounds the fixture sets onto base. Unset bounds keep
// base's values; Generalize is enabled if either side enables it.
func (fc FixtureConfig) Apply(base session.Config) session.Config {
	if fc.ScopeSize > 0 {
		base.ScopeSize = fc.ScopeSize
	}
	if fc.ArchiveSize > 0 {
		base.ArchiveSize = fc.ArchiveSize
	}
	if fc.MinObservations > 0 {
		base.MinObservations = fc.MinObservations
	}
	base.Generalize = base.Generalize || fc.Generalize
	return base
}

// SequenceSource returns the fixture's sequences as an in-memory source.
func (f *Fixture) SequenceSource() *registry.Sequences {
	return registry.NewSequences(f.Sequences...)
}

// #endregion fixture-loader
