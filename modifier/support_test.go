package modifier

import (
	"testing"

	"github.com/aligator/slicecore/data"
)

type fakeLayer struct {
	parts []data.LayerPart
	attrs map[string]interface{}
}

func newFakeLayer(parts ...data.LayerPart) *fakeLayer {
	return &fakeLayer{parts: parts, attrs: map[string]interface{}{}}
}

func (l *fakeLayer) LayerParts() []data.LayerPart       { return l.parts }
func (l *fakeLayer) Attributes() map[string]interface{} { return l.attrs }

func square(x0, y0, side data.Micrometer) data.LayerPart {
	return data.NewLayerPart(data.Path{
		{X: x0, Y: y0}, {X: x0 + side, Y: y0}, {X: x0 + side, Y: y0 + side}, {X: x0, Y: y0 + side},
	}, nil)
}

func supportTestSettings() *data.Settings {
	return &data.Settings{
		Print: data.PrintSettings{
			LayerThickness: 0.2,
			Support: data.SupportSettings{
				Enabled:         true,
				ThresholdAngle:  0,
				TopGapLayers:    0,
				PatternSpacing:  0,
				Gap:             0,
				InterfaceLayers: 1,
			},
		},
	}
}

func TestSupportDetectorModifierDisabledIsNoop(t *testing.T) {
	settings := supportTestSettings()
	settings.Print.Support.Enabled = false
	m := NewSupportDetectorModifier(settings)

	layers := []data.PartitionedLayer{
		newFakeLayer(square(0, 0, 5000)),
		newFakeLayer(square(-5000, -5000, 15000)),
	}

	if err := m.Modify(layers); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
	if parts, _ := PartsAttribute(layers[0], "support"); len(parts) != 0 {
		t.Errorf("expected no support attribute when support is disabled, got %v", parts)
	}
}

func TestSupportDetectorModifierFlagsOverhang(t *testing.T) {
	settings := supportTestSettings()
	m := NewSupportDetectorModifier(settings)

	bottom := square(0, 0, 5000)
	overhanging := square(-5000, -5000, 15000)
	layers := []data.PartitionedLayer{
		newFakeLayer(bottom),
		newFakeLayer(overhanging),
		newFakeLayer(overhanging),
	}

	if err := m.Modify(layers); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}

	parts, err := PartsAttribute(layers[0], "support")
	if err != nil {
		t.Fatalf("PartsAttribute() error = %v", err)
	}
	if len(parts) == 0 {
		t.Error("expected the bottom layer to be flagged with support where the layer above overhangs it")
	}
}

func TestSupportGeneratorModifierGrowsDownAndSplitsInterface(t *testing.T) {
	settings := supportTestSettings()
	m := NewSupportGeneratorModifier(settings)

	model := square(0, 0, 5000)
	overhangSupport := square(-5000, -5000, 15000)

	below := newFakeLayer(model)
	above := newFakeLayer(model)
	above.attrs["support"] = []data.LayerPart{overhangSupport}

	layers := []data.PartitionedLayer{below, above}

	if err := m.Modify(layers); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}

	full, err := PartsAttribute(layers[0], "fullSupport")
	if err != nil {
		t.Fatalf("PartsAttribute(fullSupport) error = %v", err)
	}
	if len(full) == 0 {
		t.Error("expected the generator to grow support down onto the layer below")
	}
}

func TestSupportGeneratorModifierSkipsWhenDisabled(t *testing.T) {
	settings := supportTestSettings()
	settings.Print.Support.Enabled = false
	m := NewSupportGeneratorModifier(settings)

	layers := []data.PartitionedLayer{
		newFakeLayer(square(0, 0, 5000)),
		newFakeLayer(square(0, 0, 5000)),
	}

	if err := m.Modify(layers); err != nil {
		t.Fatalf("Modify() error = %v", err)
	}
}

func TestPartsAttributeMissingReturnsNilNil(t *testing.T) {
	layer := newFakeLayer(square(0, 0, 1000))
	parts, err := PartsAttribute(layer, "support")
	if err != nil || parts != nil {
		t.Errorf("PartsAttribute() = %v, %v, want nil, nil for a missing attribute", parts, err)
	}
}

func TestPartsAttributeWrongTypeReturnsError(t *testing.T) {
	layer := newFakeLayer(square(0, 0, 1000))
	layer.attrs["support"] = "not a []LayerPart"
	if _, err := PartsAttribute(layer, "support"); err == nil {
		t.Error("expected an error for an attribute of the wrong type")
	}
}
