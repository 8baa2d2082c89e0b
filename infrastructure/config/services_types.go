package config

// TracePreset is one named, reusable bundle of controller bootstrap
// settings from presets.yaml: a DSN (or multinode descriptor path)
// plus the resource knobs that go with it, so a recurring target (a
// nightly CI run's database, a specific node's profile) doesn't need
// retyping on every invocation.
type TracePreset struct {
	// DSN is the trace database DSN or a *.json multinode descriptor
	// path.
	DSN string `yaml:"dsn" json:"dsn"`

	// MemBudget is a human byte-size string (e.g. "512MiB"), parsed
	// with ParseByteSize. Empty means unbounded.
	MemBudget string `yaml:"mem_budget,omitempty" json:"mem_budget,omitempty"`

	// Workers overrides the job pool size. Zero means
	// hardware_concurrency.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// PeakFlops overrides the device peak throughput used for
	// roofline placement. Zero means the engine's own default.
	PeakFlops float64 `yaml:"peak_flops,omitempty" json:"peak_flops,omitempty"`

	// Description is a human-readable note, surfaced by `presets`.
	Description string `yaml:"description" json:"description"`
}

// PresetSet holds every named preset loaded from presets.yaml.
type PresetSet struct {
	Presets map[string]*TracePreset `yaml:"presets" json:"presets"`
}

// Get returns the named preset, or nil if it isn't defined.
func (c *PresetSet) Get(name string) *TracePreset {
	if c == nil || c.Presets == nil {
		return nil
	}
	return c.Presets[name]
}

// Names returns every defined preset name.
func (c *PresetSet) Names() []string {
	if c == nil || c.Presets == nil {
		return nil
	}
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	return names
}
