// Package pipeline orchestrates the capture, processing, and render
// threads: it owns every ring and every DSP processor and runs the
// per-block stage order (meter, AI suppressor, expander, EQ, compressor,
// limiter, meter) between the capture and render endpoints.
package pipeline

// ExpanderParams is the tunable parameter set for the downward expander.
type ExpanderParams struct {
	Enabled      bool
	ThresholdDB  float64
	Ratio        float64
	AttackMs     float64
	ReleaseMs    float64
	HysteresisDB float64
}

// CompressorParams is the tunable parameter set for the feed-forward
// compressor.
type CompressorParams struct {
	Enabled     bool
	ThresholdDB float64
	Ratio       float64
	KneeDB      float64
	AttackMs    float64
	ReleaseMs   float64
	MakeupDB    float64
}

// LimiterParams is the tunable parameter set for the brickwall limiter.
type LimiterParams struct {
	Enabled     bool
	CeilingDB   float64
	ReleaseMs   float64
	LookaheadMs float64
}

// ShelfParams describes a shelving filter's corner frequency and gain.
type ShelfParams struct {
	FreqHz float64
	GainDB float64
}

// PeakParams describes the presence peak filter.
type PeakParams struct {
	FreqHz float64
	GainDB float64
	Q      float64
}

// HighpassParams describes the DC-blocking high-pass stage.
type HighpassParams struct {
	FreqHz float64
	Q      float64
}

// DeEsserParams is the tunable parameter set for the sibilance de-esser.
type DeEsserParams struct {
	Enabled     bool
	FreqHz      float64
	ThresholdDB float64
}

// EqParams is the tunable parameter set for the voice equalizer.
type EqParams struct {
	Enabled   bool
	Highpass  HighpassParams
	LowShelf  ShelfParams
	Presence  PeakParams
	HighShelf ShelfParams
	DeEsser   DeEsserParams
}

// AiModel names the selectable AI noise-suppression model.
type AiModel string

const (
	AiModelRNNoise    AiModel = "rnnoise"
	AiModelDeepFilter AiModel = "deepfilter"
	AiModelOpenVINO   AiModel = "openvino"
)

// AiSettings holds per-model AI suppressor configuration.
type AiSettings struct {
	AttenuationDB      float64
	DeepFilterModel    string
	DeepFilterStrength float64
}

// DspParams is the flat, user-tunable parameter record for one instant of
// the pipeline's DSP state. It is copied by value at preset application and
// swapped atomically at block boundaries; processors never see a partial
// update mid-block.
type DspParams struct {
	Bypass bool

	PresetName string

	AiModel    AiModel
	AiSettings AiSettings

	Expander   ExpanderParams
	Compressor CompressorParams
	Limiter    LimiterParams
	Eq         EqParams
}

// Default returns the pipeline's out-of-the-box parameter set: every stage
// enabled at conservative settings, no preset name.
func Default() DspParams {
	return DspParams{
		PresetName: "",
		AiModel:    AiModelRNNoise,
		AiSettings: AiSettings{AttenuationDB: 0},
		Expander: ExpanderParams{
			Enabled: true, ThresholdDB: -45, Ratio: 2, AttackMs: 5, ReleaseMs: 100, HysteresisDB: 3,
		},
		Compressor: CompressorParams{
			Enabled: true, ThresholdDB: -20, Ratio: 4, KneeDB: 6, AttackMs: 10, ReleaseMs: 100, MakeupDB: 0,
		},
		Limiter: LimiterParams{
			Enabled: true, CeilingDB: -1, ReleaseMs: 50, LookaheadMs: 5,
		},
		Eq: EqParams{
			Enabled:   true,
			Highpass:  HighpassParams{FreqHz: 80, Q: 0.7},
			LowShelf:  ShelfParams{FreqHz: 200, GainDB: 0},
			Presence:  PeakParams{FreqHz: 3000, GainDB: 0, Q: 1.0},
			HighShelf: ShelfParams{FreqHz: 8000, GainDB: 0},
			DeEsser:   DeEsserParams{Enabled: false, FreqHz: 6000, ThresholdDB: -20},
		},
	}
}

// PresetPodcast returns the "podcast" preset table.
func PresetPodcast() DspParams {
	p := Default()
	p.PresetName = "podcast"
	p.Expander = ExpanderParams{Enabled: true, ThresholdDB: -45, Ratio: 2.5, AttackMs: 5, ReleaseMs: 100, HysteresisDB: 3}
	p.Compressor = CompressorParams{Enabled: true, ThresholdDB: -16, Ratio: 3.5, KneeDB: 6, AttackMs: 10, ReleaseMs: 100, MakeupDB: 6}
	p.Limiter = LimiterParams{Enabled: true, CeilingDB: -1, ReleaseMs: 50, LookaheadMs: 5}
	p.Eq = EqParams{
		Enabled:   true,
		Highpass:  HighpassParams{FreqHz: 80, Q: 0.7},
		LowShelf:  ShelfParams{FreqHz: 200, GainDB: 1},
		Presence:  PeakParams{FreqHz: 3000, GainDB: 3, Q: 1.0},
		HighShelf: ShelfParams{FreqHz: 8000, GainDB: 2},
		DeEsser:   DeEsserParams{Enabled: false, FreqHz: 6000, ThresholdDB: -20},
	}

	return p
}

// PresetStreaming returns the "streaming" preset table.
func PresetStreaming() DspParams {
	p := Default()
	p.PresetName = "streaming"
	p.Expander = ExpanderParams{Enabled: true, ThresholdDB: -40, Ratio: 3.0, AttackMs: 3, ReleaseMs: 80, HysteresisDB: 2}
	p.Compressor = CompressorParams{Enabled: true, ThresholdDB: -14, Ratio: 4.5, KneeDB: 4, AttackMs: 5, ReleaseMs: 80, MakeupDB: 8}
	p.Limiter = LimiterParams{Enabled: true, CeilingDB: -0.5, ReleaseMs: 30, LookaheadMs: 5}
	p.Eq = EqParams{
		Enabled:   true,
		Highpass:  HighpassParams{FreqHz: 80, Q: 0.8},
		LowShelf:  ShelfParams{FreqHz: 150, GainDB: 2},
		Presence:  PeakParams{FreqHz: 4000, GainDB: 4, Q: 1.2},
		HighShelf: ShelfParams{FreqHz: 12000, GainDB: 3},
		DeEsser:   DeEsserParams{Enabled: false, FreqHz: 6000, ThresholdDB: -20},
	}

	return p
}

// PresetMeeting returns the "meeting" preset table: gentler dynamics than
// podcast/streaming, favoring intelligibility of spontaneous speech over
// broadcast polish, with a slightly higher high-pass to cut more room
// rumble from laptop microphones.
func PresetMeeting() DspParams {
	p := Default()
	p.PresetName = "meeting"
	p.Expander = ExpanderParams{Enabled: true, ThresholdDB: -50, Ratio: 2.0, AttackMs: 8, ReleaseMs: 150, HysteresisDB: 4}
	p.Compressor = CompressorParams{Enabled: true, ThresholdDB: -20, Ratio: 3.0, KneeDB: 6, AttackMs: 15, ReleaseMs: 150, MakeupDB: 4}
	p.Limiter = LimiterParams{Enabled: true, CeilingDB: -1.5, ReleaseMs: 60, LookaheadMs: 5}
	p.Eq = EqParams{
		Enabled:   true,
		Highpass:  HighpassParams{FreqHz: 100, Q: 0.7},
		LowShelf:  ShelfParams{FreqHz: 200, GainDB: 0},
		Presence:  PeakParams{FreqHz: 2500, GainDB: 2, Q: 1.0},
		HighShelf: ShelfParams{FreqHz: 8000, GainDB: 1},
		DeEsser:   DeEsserParams{Enabled: false, FreqHz: 6000, ThresholdDB: -20},
	}

	return p
}

// PresetByName looks up a required preset by name. ok is false for an
// unknown name, in which case DspParams is the zero value.
func PresetByName(name string) (DspParams, bool) {
	switch name {
	case "podcast":
		return PresetPodcast(), true
	case "streaming":
		return PresetStreaming(), true
	case "meeting":
		return PresetMeeting(), true
	default:
		return DspParams{}, false
	}
}
