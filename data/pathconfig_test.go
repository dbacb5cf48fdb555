package data

import "testing"

func TestGCodePathConfigExtrusionRate(t *testing.T) {
	cfg := NewGCodePathConfig(FeatureOuterWall, Millimeter(0.4).ToMicrometer(), Millimeter(0.2).ToMicrometer(), 1, SpeedDerivatives{Speed: 60})

	want := 0.4 * 0.2 * 1
	if got := cfg.ExtrusionMM3PerMM(); absDiff(got, want) > 1e-9 {
		t.Errorf("ExtrusionMM3PerMM() = %v, want %v", got, want)
	}
}

func TestGCodePathConfigWithFlowRecomputesExtrusion(t *testing.T) {
	base := NewGCodePathConfig(FeatureSkin, Millimeter(0.4).ToMicrometer(), Millimeter(0.2).ToMicrometer(), 1, SpeedDerivatives{})
	doubled := base.WithFlow(2)

	if doubled.ExtrusionMM3PerMM() != base.ExtrusionMM3PerMM()*2 {
		t.Errorf("doubling flow should double extrusion rate: %v vs %v", doubled.ExtrusionMM3PerMM(), base.ExtrusionMM3PerMM())
	}
	if base.Flow != 1 {
		t.Error("WithFlow must not mutate the receiver")
	}
}

func TestGCodePathConfigMatches(t *testing.T) {
	a := NewGCodePathConfig(FeatureInnerWall, 400000, 200000, 1, SpeedDerivatives{Speed: 60})
	b := NewGCodePathConfig(FeatureInnerWall, 400000, 200000, 1, SpeedDerivatives{Speed: 60})
	c := a.WithLineWidth(500000)

	if !a.Matches(b) {
		t.Error("identical configs should match")
	}
	if a.Matches(c) {
		t.Error("configs with different line widths should not match")
	}
}

func TestSpeedupFactor(t *testing.T) {
	s := &Settings{Print: PrintSettings{InitialSpeedupLayerCount: 4}}

	if f := speedupFactor(s, 0); f != 0 {
		t.Errorf("layer 0 factor = %v, want 0", f)
	}
	if f := speedupFactor(s, 4); f != 1 {
		t.Errorf("layer == K factor = %v, want 1", f)
	}
	if f := speedupFactor(s, 100); f != 1 {
		t.Errorf("layer > K factor = %v, want 1", f)
	}
	if f := speedupFactor(s, 2); absDiff(f, 0.5) > 1e-9 {
		t.Errorf("layer K/2 factor = %v, want 0.5", f)
	}
}

func TestWallLineWidth0NonZero(t *testing.T) {
	p := PrintSettings{WallLineWidth: 0.4}
	if got := p.WallLineWidth0NonZero(); got != 0.4 {
		t.Errorf("fallback to WallLineWidth = %v, want 0.4", got)
	}
	p.WallLineWidth0 = 0.6
	if got := p.WallLineWidth0NonZero(); got != 0.6 {
		t.Errorf("explicit WallLineWidth0 = %v, want 0.6", got)
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
