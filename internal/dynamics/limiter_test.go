package dynamics

import (
	"math"
	"testing"
)

func TestLimiterNoLookaheadCapsCeiling(t *testing.T) {
	l, err := NewLimiter(48000)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	l.SetCeiling(-3)
	l.SetLookahead(0)
	l.SetRelease(50)

	ceilingLin := math.Pow(10, -3.0/20)

	amplitude := 0.95
	freq := 1000.0
	sampleRate := 48000.0

	peak := 0.0
	n := 48000
	for i := 0; i < n; i++ {
		x := amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		y := l.ProcessSample(x)

		if i > 2400 {
			if a := math.Abs(y); a > peak {
				peak = a
			}
		}
	}

	if peak > ceilingLin*1.01 {
		t.Errorf("steady-state peak = %v, want <= %v (ceiling)", peak, ceilingLin)
	}
}

func TestLimiterLookaheadDegeneratesToInstantAttackAtZero(t *testing.T) {
	l, err := NewLimiter(48000)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	l.SetLookahead(0)

	if l.lookaheadN != 0 {
		t.Fatalf("lookaheadN = %d, want 0", l.lookaheadN)
	}

	// With zero lookahead, output should equal input scaled by gain with no
	// added delay: feeding an impulse should produce a nonzero sample at the
	// same index, not a later one.
	out := l.ProcessSample(0.99)
	if out == 0 {
		t.Error("zero-lookahead limiter introduced delay on a single impulse")
	}
}

func TestLimiterGainReductionNeverNegative(t *testing.T) {
	l, err := NewLimiter(48000)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	l.SetCeiling(-1)

	for i := 0; i < 1000; i++ {
		l.ProcessSample(0.1) // well under ceiling
	}

	if l.Metrics().GainReductionDB < 0 {
		t.Errorf("GainReductionDB = %v, want >= 0", l.Metrics().GainReductionDB)
	}
}

func TestLimiterResetRestoresUnityGain(t *testing.T) {
	l, err := NewLimiter(48000)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	l.SetCeiling(-6)
	for i := 0; i < 1000; i++ {
		l.ProcessSample(1.0)
	}

	l.Reset()

	if l.gain != 1.0 {
		t.Errorf("gain after Reset = %v, want 1.0", l.gain)
	}
}

func TestLimiterLookaheadAddsDelayEqualToWindow(t *testing.T) {
	l, err := NewLimiter(48000)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	l.SetLookahead(5) // 5ms @ 48kHz = 240 samples
	l.SetCeiling(0)

	if l.lookaheadN != 240 {
		t.Fatalf("lookaheadN = %d, want 240", l.lookaheadN)
	}

	impulseIdx := 10
	var firstNonzero = -1

	for i := 0; i < 260; i++ {
		x := 0.0
		if i == impulseIdx {
			x = 0.5
		}

		y := l.ProcessSample(x)
		if y != 0 && firstNonzero == -1 {
			firstNonzero = i
		}
	}

	wantIdx := impulseIdx + l.lookaheadN // the circular delay buffer holds the program signal back by the full window
	if firstNonzero != wantIdx {
		t.Errorf("impulse emerged at sample %d, want %d", firstNonzero, wantIdx)
	}
}
