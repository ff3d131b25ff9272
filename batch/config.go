package batch

// Config retrieves the config values used by Batch. If these values are
// constant, NewConstantConfig or FixedSize can be used to create an
// implementation of the interface.
type Config interface {
	// Get returns the values for configuration. It is called once before
	// each batch is collected.
	//
	// If the config values may be modified during batch processing, Get
	// must properly handle concurrency issues.
	Get() ConfigValues
}

// ConfigValues contains the Batch config values.
type ConfigValues struct {
	// Size is the number of items in a full batch. A batch is dispatched as
	// soon as it holds Size items. Zero is treated as 1.
	Size uint64 `json:"size"`
}

// NewConstantConfig returns a Config with constant values. If values
// is nil, the default values are used as described in Batch.
func NewConstantConfig(values *ConfigValues) *ConstantConfig {
	if values == nil {
		return &ConstantConfig{}
	}

	return &ConstantConfig{
		values: *values,
	}
}

// FixedSize returns a Config that cuts batches of exactly size items, except
// for the last one.
func FixedSize(size uint64) *ConstantConfig {
	return NewConstantConfig(&ConfigValues{Size: size})
}

// ConstantConfig is a Config with constant values. Create one with
// NewConstantConfig. It is safe for concurrent use.
type ConstantConfig struct {
	values ConfigValues
}

// Get implements the Config interface.
func (b *ConstantConfig) Get() ConfigValues {
	return b.values
}

// fixConfig corrects ConfigValues that would stall the collector.
func fixConfig(c ConfigValues) ConfigValues {
	if c.Size == 0 {
		c.Size = 1
	}
	return c
}
