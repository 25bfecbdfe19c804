package heap

import "github.com/BurntSushi/toml"

// Config holds the heap's tuning constants. The zero Config is not
// usable directly; call DefaultConfig and override fields, or load one
// with LoadConfig, mirroring the way the teacher's manifest package
// loads maggie.toml rather than hard-coding project settings.
type Config struct {
	// InitialSemispaceCapacity and MaxSemispaceCapacity are byte sizes
	// for a single semispace.
	InitialSemispaceCapacity int `toml:"initial_semispace_capacity"`
	MaxSemispaceCapacity     int `toml:"max_semispace_capacity"`

	// HandlesCapacity bounds the pinned-pointer handle stack.
	HandlesCapacity int `toml:"handles_capacity"`

	// ClassTableInitialCapacity is the class table's starting slot
	// count.
	ClassTableInitialCapacity int `toml:"class_table_initial_capacity"`

	// GrowthThresholdEighths is the used/size fraction, expressed as a
	// numerator over 8, past which the early growth heuristic fires.
	// The default of 7 matches "used > 7/8 * size".
	GrowthThresholdEighths int `toml:"growth_threshold_eighths"`

	// Seed drives the identity-hash PRNG. Zero means "derive from the
	// heap's isolate UUID at construction," matching the source's
	// Heap(Isolate*, uint64_t seed) constructor taking a caller-supplied
	// seed only when the caller has one.
	Seed uint64 `toml:"seed"`

	// Debug gates poisoning of unallocated/retired memory and the
	// debug-mode no-access flip of the passive semispace.
	Debug bool `toml:"debug"`

	// ReportGC, TraceGrowth, and TraceBecome gate diagnostic logging,
	// the runtime-toggleable equivalent of the source's REPORT_GC,
	// TRACE_GROWTH, and TRACE_BECOME compile-time switches.
	ReportGC    bool `toml:"report_gc"`
	TraceGrowth bool `toml:"trace_growth"`
	TraceBecome bool `toml:"trace_become"`
}

// DefaultConfig returns the tuning constants the source ships with.
func DefaultConfig() Config {
	return Config{
		InitialSemispaceCapacity: kInitialSemispaceCapacity,
		MaxSemispaceCapacity:     kMaxSemispaceCapacity,
		HandlesCapacity:          kHandlesCapacity,
		ClassTableInitialCapacity: kClassTableInitialCapacity,
		GrowthThresholdEighths:    7,
	}
}

// LoadConfig reads a TOML file and overlays it on DefaultConfig; fields
// absent from the file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
