package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clearvoice/voxengine/internal/pipeline"
)

func TestDefaultRoundTripsThroughDspParams(t *testing.T) {
	c := Default()
	p := c.ToDspParams()

	if p.Expander.ThresholdDB != pipeline.Default().Expander.ThresholdDB {
		t.Errorf("expander threshold = %v, want %v", p.Expander.ThresholdDB, pipeline.Default().Expander.ThresholdDB)
	}
}

func TestFromDspParamsRoundTripsPresetTable(t *testing.T) {
	preset := pipeline.PresetPodcast()
	c := FromDspParams(preset, Devices{InputDevice: "mic", OutputDevice: "cable"})

	if c.ActivePreset != "podcast" {
		t.Errorf("ActivePreset = %q, want %q", c.ActivePreset, "podcast")
	}
	if c.Devices.InputDevice != "mic" || c.Devices.OutputDevice != "cable" {
		t.Errorf("Devices = %+v, unexpected", c.Devices)
	}

	back := c.ToDspParams()
	if back.Compressor.ThresholdDB != preset.Compressor.ThresholdDB {
		t.Errorf("compressor threshold round trip = %v, want %v", back.Compressor.ThresholdDB, preset.Compressor.ThresholdDB)
	}
	if back.Limiter.CeilingDB != preset.Limiter.CeilingDB {
		t.Errorf("limiter ceiling round trip = %v, want %v", back.Limiter.CeilingDB, preset.Limiter.CeilingDB)
	}
}

func TestToDspParamsClampsOutOfRangeValues(t *testing.T) {
	c := Default()
	c.Limiter.CeilingDB = 40
	c.Compressor.Ratio = -5
	c.Equalizer.HighPass.FreqHz = 999999

	p := c.ToDspParams()

	if p.Limiter.CeilingDB > 0 {
		t.Errorf("CeilingDB = %v, want clamped <= 0", p.Limiter.CeilingDB)
	}
	if p.Compressor.Ratio < 1 {
		t.Errorf("Ratio = %v, want clamped >= 1", p.Compressor.Ratio)
	}
	if p.Eq.Highpass.FreqHz > 300 {
		t.Errorf("Highpass.FreqHz = %v, want clamped <= 300", p.Eq.Highpass.FreqHz)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := FromDspParams(pipeline.PresetStreaming(), Devices{InputDevice: "mic", OutputDevice: "cable"})

	if err := Save(path, original); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.ActivePreset != original.ActivePreset {
		t.Errorf("ActivePreset = %q, want %q", loaded.ActivePreset, original.ActivePreset)
	}
	if loaded.Devices != original.Devices {
		t.Errorf("Devices = %+v, want %+v", loaded.Devices, original.Devices)
	}
}

func TestLoadMissingFileReturnsDefaultAndError(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if c.Version != schemaVersion {
		t.Errorf("Version = %d, want %d", c.Version, schemaVersion)
	}
}

func TestLoadCorruptFileReturnsDefaultAndError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.json")

	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("expected a parse error for a corrupt file")
	}
}
