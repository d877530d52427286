package config

// SAMRConfig configures C9's Shadow Agent Memory Reconciliation detector:
// whether it runs at all, the global divergence-threshold prior the
// adaptive service shrinks toward, and the shadow-stream perturbation
// strength, per spec.md §6's "SAMR enabled, divergence threshold (prior),
// perturbation strength".
type SAMRConfig struct {
	Enabled              bool    `yaml:"enabled"`
	DivergenceThreshold  float64 `yaml:"divergence_threshold" validate:"required,min=0,max=1"`
	PerturbationStrength float64 `yaml:"perturbation_strength,omitempty" validate:"omitempty,min=0,max=1"`
}
