package pbtheory

// Config groups every tunable of the plugin, mirroring the teacher's
// Solver struct exposing public tunables (Verbose, Certified, CertChan)
// rather than hiding them behind hardcoded constants. cmd/pbcheck binds
// these fields to viper keys (§10.2); the library itself takes a plain
// Config value and never imports viper.
type Config struct {
	// CompilationEnabled gates whether any inequality is ever scheduled
	// for sorting-network compilation (§4.2 step 7).
	CompilationEnabled bool
	// MaxCoeffForCompilation is the "< 8" threshold of §4.2 step 7: only
	// constraints whose maximum coefficient is below this are eligible.
	MaxCoeffForCompilation int

	// DirectEncodingThreshold is the "n < 10" guard of §4.3 on the
	// exponential direct encodings.
	DirectEncodingThreshold int

	// Differential-testing gates (§4.3): each construction can be forced
	// or disabled independently of the cost model.
	DisableDirectSorting bool
	ForceDirectSorting   bool
	DisableDirectMerge   bool
	ForceDirectMerge     bool
	DisableDirectCard    bool
	ForceDirectCard      bool
}

// DefaultConfig returns the Config used when a host doesn't override
// anything, matching the thresholds named in §4.2/§4.3.
func DefaultConfig() Config {
	return Config{
		CompilationEnabled:      true,
		MaxCoeffForCompilation:  8,
		DirectEncodingThreshold: 10,
	}
}
