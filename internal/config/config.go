// Package config defines the persisted JSON configuration schema and its
// load/save round trip.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clearvoice/voxengine/internal/dspmath"
	"github.com/clearvoice/voxengine/internal/pipeline"
)

// schemaVersion is written into every saved config. Load does not check
// it, so neither unknown fields nor a version mismatch block startup.
const schemaVersion = 1

// Devices names the persisted input/output device selection.
type Devices struct {
	InputDevice  string `json:"inputDevice"`
	OutputDevice string `json:"outputDevice"`
}

// RNNoiseSettings is the persisted RNNoise-model configuration.
type RNNoiseSettings struct {
	AttenuationDB float64 `json:"attenuation"`
}

// DeepFilterSettings is the persisted DeepFilter-model configuration.
type DeepFilterSettings struct {
	ModelPath string  `json:"modelPath"`
	Strength  float64 `json:"strength"`
}

// AiSettings groups every AI backend's persisted settings; only the one
// matching AiModel is meaningful at runtime.
type AiSettings struct {
	RNNoise    RNNoiseSettings    `json:"rnnoise"`
	DeepFilter DeepFilterSettings `json:"deepfilter"`
}

// Expander is the persisted downward-expander parameter set.
type Expander struct {
	Enabled      bool    `json:"enabled"`
	ThresholdDB  float64 `json:"threshold"`
	Ratio        float64 `json:"ratio"`
	AttackMs     float64 `json:"attack"`
	ReleaseMs    float64 `json:"release"`
	HysteresisDB float64 `json:"hysteresis"`
}

// Compressor is the persisted compressor parameter set.
type Compressor struct {
	Enabled     bool    `json:"enabled"`
	ThresholdDB float64 `json:"threshold"`
	Ratio       float64 `json:"ratio"`
	KneeDB      float64 `json:"knee"`
	AttackMs    float64 `json:"attack"`
	ReleaseMs   float64 `json:"release"`
	MakeupDB    float64 `json:"makeupGain"`
}

// Limiter is the persisted brickwall-limiter parameter set.
type Limiter struct {
	Enabled     bool    `json:"enabled"`
	CeilingDB   float64 `json:"ceiling"`
	ReleaseMs   float64 `json:"release"`
	LookaheadMs float64 `json:"lookahead"`
}

// FreqQ is a corner-frequency-and-Q pair, used by the high-pass stage.
type FreqQ struct {
	FreqHz float64 `json:"freq"`
	Q      float64 `json:"q"`
}

// FreqGain is a corner-frequency-and-gain pair, used by the shelving
// stages.
type FreqGain struct {
	FreqHz float64 `json:"freq"`
	GainDB float64 `json:"gain"`
}

// FreqGainQ is a center-frequency, gain, and Q triple, used by the
// presence peak stage.
type FreqGainQ struct {
	FreqHz float64 `json:"freq"`
	GainDB float64 `json:"gain"`
	Q      float64 `json:"q"`
}

// DeEsser is the persisted de-esser corner and threshold; enable state is
// a sibling field on Equalizer per the wire schema.
type DeEsser struct {
	FreqHz      float64 `json:"freq"`
	ThresholdDB float64 `json:"threshold"`
}

// Equalizer is the persisted voice-EQ chain parameter set.
type Equalizer struct {
	Enabled        bool      `json:"enabled"`
	HighPass       FreqQ     `json:"highPass"`
	LowShelf       FreqGain  `json:"lowShelf"`
	Presence       FreqGainQ `json:"presence"`
	HighShelf      FreqGain  `json:"highShelf"`
	DeEsser        DeEsser   `json:"deEsser"`
	DeEsserEnabled bool      `json:"deEsserEnabled"`
}

// Config is the full persisted configuration document.
type Config struct {
	Version      int        `json:"version"`
	Devices      Devices    `json:"devices"`
	AiModel      string     `json:"aiModel"`
	AiSettings   AiSettings `json:"aiSettings"`
	Expander     Expander   `json:"expander"`
	Compressor   Compressor `json:"compressor"`
	Limiter      Limiter    `json:"limiter"`
	Equalizer    Equalizer  `json:"equalizer"`
	ActivePreset string     `json:"activePreset"`
}

// Default returns the configuration matching pipeline.Default(), with no
// devices selected and no active preset.
func Default() Config {
	return fromDspParams(pipeline.Default())
}

func fromDspParams(p pipeline.DspParams) Config {
	return Config{
		Version: schemaVersion,
		AiModel: string(p.AiModel),
		AiSettings: AiSettings{
			RNNoise:    RNNoiseSettings{AttenuationDB: p.AiSettings.AttenuationDB},
			DeepFilter: DeepFilterSettings{ModelPath: p.AiSettings.DeepFilterModel, Strength: p.AiSettings.DeepFilterStrength},
		},
		Expander: Expander{
			Enabled: p.Expander.Enabled, ThresholdDB: p.Expander.ThresholdDB, Ratio: p.Expander.Ratio,
			AttackMs: p.Expander.AttackMs, ReleaseMs: p.Expander.ReleaseMs, HysteresisDB: p.Expander.HysteresisDB,
		},
		Compressor: Compressor{
			Enabled: p.Compressor.Enabled, ThresholdDB: p.Compressor.ThresholdDB, Ratio: p.Compressor.Ratio,
			KneeDB: p.Compressor.KneeDB, AttackMs: p.Compressor.AttackMs, ReleaseMs: p.Compressor.ReleaseMs,
			MakeupDB: p.Compressor.MakeupDB,
		},
		Limiter: Limiter{
			Enabled: p.Limiter.Enabled, CeilingDB: p.Limiter.CeilingDB, ReleaseMs: p.Limiter.ReleaseMs,
			LookaheadMs: p.Limiter.LookaheadMs,
		},
		Equalizer: Equalizer{
			Enabled:        p.Eq.Enabled,
			HighPass:       FreqQ{FreqHz: p.Eq.Highpass.FreqHz, Q: p.Eq.Highpass.Q},
			LowShelf:       FreqGain{FreqHz: p.Eq.LowShelf.FreqHz, GainDB: p.Eq.LowShelf.GainDB},
			Presence:       FreqGainQ{FreqHz: p.Eq.Presence.FreqHz, GainDB: p.Eq.Presence.GainDB, Q: p.Eq.Presence.Q},
			HighShelf:      FreqGain{FreqHz: p.Eq.HighShelf.FreqHz, GainDB: p.Eq.HighShelf.GainDB},
			DeEsser:        DeEsser{FreqHz: p.Eq.DeEsser.FreqHz, ThresholdDB: p.Eq.DeEsser.ThresholdDB},
			DeEsserEnabled: p.Eq.DeEsser.Enabled,
		},
		ActivePreset: p.PresetName,
	}
}

// ToDspParams converts a persisted Config into a pipeline.DspParams,
// clamping every numeric field into a bounded range so a hand-edited or
// corrupted file cannot carry arbitrary values. Several of these bounds are
// wider than the processors' own; each processor's setter clamps again to
// its own range when the params are applied.
func (c Config) ToDspParams() pipeline.DspParams {
	p := pipeline.Default()

	p.PresetName = c.ActivePreset
	p.AiModel = pipeline.AiModel(c.AiModel)
	p.AiSettings = pipeline.AiSettings{
		AttenuationDB:      c.AiSettings.RNNoise.AttenuationDB,
		DeepFilterModel:    c.AiSettings.DeepFilter.ModelPath,
		DeepFilterStrength: dspmath.Clamp(c.AiSettings.DeepFilter.Strength, 0, 1),
	}

	p.Expander = pipeline.ExpanderParams{
		Enabled:      c.Expander.Enabled,
		ThresholdDB:  dspmath.Clamp(c.Expander.ThresholdDB, -80, 0),
		Ratio:        dspmath.Clamp(c.Expander.Ratio, 1, 20),
		AttackMs:     dspmath.Clamp(c.Expander.AttackMs, 0.1, 200),
		ReleaseMs:    dspmath.Clamp(c.Expander.ReleaseMs, 1, 2000),
		HysteresisDB: dspmath.Clamp(c.Expander.HysteresisDB, 0, 24),
	}

	p.Compressor = pipeline.CompressorParams{
		Enabled:     c.Compressor.Enabled,
		ThresholdDB: dspmath.Clamp(c.Compressor.ThresholdDB, -60, 0),
		Ratio:       dspmath.Clamp(c.Compressor.Ratio, 1, 20),
		KneeDB:      dspmath.Clamp(c.Compressor.KneeDB, 0, 24),
		AttackMs:    dspmath.Clamp(c.Compressor.AttackMs, 0.1, 200),
		ReleaseMs:   dspmath.Clamp(c.Compressor.ReleaseMs, 1, 2000),
		MakeupDB:    dspmath.Clamp(c.Compressor.MakeupDB, 0, 24),
	}

	p.Limiter = pipeline.LimiterParams{
		Enabled:     c.Limiter.Enabled,
		CeilingDB:   dspmath.Clamp(c.Limiter.CeilingDB, -24, 0),
		ReleaseMs:   dspmath.Clamp(c.Limiter.ReleaseMs, 1, 1000),
		LookaheadMs: dspmath.Clamp(c.Limiter.LookaheadMs, 0, 20),
	}

	p.Eq = pipeline.EqParams{
		Enabled:   c.Equalizer.Enabled,
		Highpass:  pipeline.HighpassParams{FreqHz: dspmath.Clamp(c.Equalizer.HighPass.FreqHz, 20, 300), Q: dspmath.Clamp(c.Equalizer.HighPass.Q, 0.3, 5)},
		LowShelf:  pipeline.ShelfParams{FreqHz: dspmath.Clamp(c.Equalizer.LowShelf.FreqHz, 60, 500), GainDB: dspmath.Clamp(c.Equalizer.LowShelf.GainDB, -12, 12)},
		Presence:  pipeline.PeakParams{FreqHz: dspmath.Clamp(c.Equalizer.Presence.FreqHz, 1000, 8000), GainDB: dspmath.Clamp(c.Equalizer.Presence.GainDB, -12, 12), Q: dspmath.Clamp(c.Equalizer.Presence.Q, 0.3, 5)},
		HighShelf: pipeline.ShelfParams{FreqHz: dspmath.Clamp(c.Equalizer.HighShelf.FreqHz, 2000, 16000), GainDB: dspmath.Clamp(c.Equalizer.HighShelf.GainDB, -12, 12)},
		DeEsser: pipeline.DeEsserParams{
			Enabled:     c.Equalizer.DeEsserEnabled,
			FreqHz:      dspmath.Clamp(c.Equalizer.DeEsser.FreqHz, 1000, 16000),
			ThresholdDB: dspmath.Clamp(c.Equalizer.DeEsser.ThresholdDB, -60, 0),
		},
	}

	return p
}

// FromDspParams builds a Config document from a live parameter snapshot and
// the currently selected device ids, ready for Save.
func FromDspParams(p pipeline.DspParams, devices Devices) Config {
	c := fromDspParams(p)
	c.Devices = devices

	return c
}

// Load reads and parses a config file from path. A missing or corrupt file
// is not an error the caller must treat as fatal: Load returns Default()
// alongside the error so a caller may choose to start up anyway.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}

	return c, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg Config) error {
	if cfg.Version == 0 {
		cfg.Version = schemaVersion
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}
