package executor

// Config holds executor settings.
type Config struct {
	// Workers bounds how many tasks ExecuteAll runs at once.
	Workers int `yaml:"workers" validate:"gte=1,lte=64"`
	// FetchTimeoutSeconds bounds one fetch including retries.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" validate:"gte=1"`
	// FallbackRecords is how many records the synthetic fallback produces.
	FallbackRecords int `yaml:"fallback_records" validate:"gte=1,lte=500"`
	// SectorWeights scale materiality per sector. Unknown sectors weigh 1.0.
	SectorWeights map[string]float64 `yaml:"sector_weights" validate:"dive,gte=0"`
	// PersistRaw stores every payload under raw/<task_id>/<timestamp>.
	PersistRaw bool `yaml:"persist_raw"`
}

// DefaultConfig returns the executor defaults.
func DefaultConfig() Config {
	return Config{
		Workers:             4,
		FetchTimeoutSeconds: 30,
		FallbackRecords:     5,
		SectorWeights:       map[string]float64{},
		PersistRaw:          true,
	}
}

// SectorWeight returns the materiality weight for sector.
func (c Config) SectorWeight(sector string) float64 {
	if w, ok := c.SectorWeights[sector]; ok {
		return w
	}
	return 1.0
}
