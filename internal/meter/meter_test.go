package meter

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"wavpod/internal/player"
)

func sine(n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*float64(i)*50/float64(n))
	}
	return out
}

func TestLevel(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", make([]float64, 512), 0},
		{"full scale sine", sine(4096, 1), 3.3},
		{"quarter scale sine", sine(4096, 0.25), 0.825},
		{"clipped square", []float64{1, -1, 1, -1, 1, -1, 1, -1}, 3.3},
		{"single sample", []float64{0.5}, 3.3 * 0.5 * math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Level(tt.samples)
			if math.Abs(got-tt.want) > 0.02 {
				t.Errorf("expected %.3f, got %.3f", tt.want, got)
			}
		})
	}
}

func TestTier(t *testing.T) {
	tests := []struct {
		level float64
		want  int
	}{
		{0, 1},
		{0.824, 1},
		{0.825, 2},
		{1.649, 2},
		{1.65, 3},
		{2.469, 3},
		{2.47, 4},
		{3.3, 4},
		{-1, 1},
	}
	for _, tt := range tests {
		if got := Tier(tt.level); got != tt.want {
			t.Errorf("Tier(%v): expected %d, got %d", tt.level, tt.want, got)
		}
	}
}

type fixedSampler struct {
	samples []float64
	calls   int
}

func (f *fixedSampler) Samples(n int) []float64 {
	f.calls++
	return f.samples
}

type countingIndicator struct {
	sets []int
	err  error
}

func (c *countingIndicator) Set(lit int) error {
	c.sets = append(c.sets, lit)
	return c.err
}

func newLoop(t *testing.T, s Sampler, ind ...Indicator) (*Loop, *player.Control) {
	t.Helper()
	st, err := player.NewState(2)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return NewLoop(st, s, 0, ind...), player.NewControl(st, nil)
}

func TestLoop_PausedDoesNothing(t *testing.T) {
	s := &fixedSampler{samples: sine(1024, 1)}
	ind := &countingIndicator{}
	l, _ := newLoop(t, s, ind)

	if got := l.Step(); got != 0 {
		t.Errorf("expected no tier, got %d", got)
	}
	if s.calls != 0 || len(ind.sets) != 0 {
		t.Error("paused loop must not sample or touch indicators")
	}
}

func TestLoop_SetsOnChangeOnly(t *testing.T) {
	s := &fixedSampler{samples: sine(1024, 1)}
	ind := &countingIndicator{}
	l, ctrl := newLoop(t, s, ind)
	ctrl.TogglePlay()

	l.Step()
	l.Step()
	if len(ind.sets) != 1 || ind.sets[0] != 4 {
		t.Fatalf("expected a single set to 4, got %v", ind.sets)
	}

	s.samples = make([]float64, 1024)
	l.Step()
	if len(ind.sets) != 2 || ind.sets[1] != 1 {
		t.Errorf("expected tier 1 after silence, got %v", ind.sets)
	}
}

func TestLoop_StaleAfterPause(t *testing.T) {
	bar := &Bar{}
	l, ctrl := newLoop(t, &fixedSampler{samples: sine(1024, 1)}, bar)
	ctrl.TogglePlay()
	l.Step()

	ctrl.TogglePlay()
	l.Step()
	if bar.Lit() != 4 {
		t.Errorf("expected indicators left at 4, got %d", bar.Lit())
	}
}

func TestLoop_IndicatorErrorDoesNotStop(t *testing.T) {
	bad := &countingIndicator{err: errors.New("gone")}
	bar := &Bar{}
	l, ctrl := newLoop(t, &fixedSampler{samples: sine(1024, 1)}, bad, bar)
	ctrl.TogglePlay()

	if got := l.Step(); got != 4 {
		t.Errorf("expected tier 4, got %d", got)
	}
	if bar.Lit() != 4 {
		t.Error("later indicators must still be updated")
	}
}

func TestLEDs(t *testing.T) {
	root := t.TempDir()
	names := []string{"led1", "led2", "led3", "led4"}
	for _, n := range names {
		if err := os.MkdirAll(filepath.Join(root, n), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(root, n, "brightness"), []byte("0"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	leds, err := NewLEDs(root, names)
	if err != nil {
		t.Fatalf("NewLEDs: %v", err)
	}
	if err := leds.Set(2); err != nil {
		t.Fatalf("Set: %v", err)
	}

	want := []string{"1", "1", "0", "0"}
	for i, n := range names {
		raw, _ := os.ReadFile(filepath.Join(root, n, "brightness"))
		if string(raw) != want[i] {
			t.Errorf("%s: expected %s, got %s", n, want[i], raw)
		}
	}
}

func TestNewLEDs_Missing(t *testing.T) {
	if _, err := NewLEDs(t.TempDir(), []string{"nope"}); err == nil {
		t.Error("expected error for a missing LED")
	}
}
