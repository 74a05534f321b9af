package filter

import (
	"github.com/rebeliceyang/lazyadmin/internal/models"
)

// PresetMode says how a preset combines with the current filters
type PresetMode string

const (
	PresetClear   PresetMode = "clear"
	PresetReplace PresetMode = "replace"
	PresetAppend  PresetMode = "append"
)

// Preset is a named transform of the filter set
type Preset struct {
	Name    string               `yaml:"name"`
	Mode    PresetMode           `yaml:"mode"`
	Filters []models.FilterValue `yaml:"filters"`
}

// Apply returns the filter set produced by the preset. Values are
// revalidated, so a preset may yield values that still need user input.
func (p Preset) Apply(existing models.FilterSet, v models.Validator) models.FilterSet {
	var out models.FilterSet
	switch p.Mode {
	case PresetClear:
		return models.FilterSet{}
	case PresetAppend:
		out = existing.Clone()
	default:
		out = models.FilterSet{}
	}
	for _, f := range p.Filters {
		f = f.Clone()
		if f.WorkingState == "" {
			f.WorkingState = f.State
		}
		f.Revalidate(v)
		out = out.Set(f)
	}
	return out
}
