// This file provides the layer modifiers that detect and generate support
// areas ahead of planning: a detector that flags overhanging regions per
// layer, and a generator that grows those flags down into full support
// columns plus their interface layers. Adapted from GoSlice's
// modifier/support.go onto this core's data model; support geometry
// generation itself stays out of scope (spec.md §1), but these two
// modifiers are kept because they are the clearest real consumer of the
// clip and data packages outside of planning proper.
package modifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/aligator/slicecore/clip"
	"github.com/aligator/slicecore/data"
	"github.com/aligator/slicecore/handler"
)

// PartsAttribute reads a []data.LayerPart attribute off a layer, returning
// (nil, nil) if it is absent and an error if it has the wrong type.
func PartsAttribute(layer data.PartitionedLayer, name string) ([]data.LayerPart, error) {
	attr, ok := layer.Attributes()[name]
	if !ok {
		return nil, nil
	}
	parts, ok := attr.([]data.LayerPart)
	if !ok {
		return nil, fmt.Errorf("the attribute %s has the wrong datatype", name)
	}
	return parts, nil
}

type extendedLayer struct {
	data.PartitionedLayer
	attributes map[string]interface{}
}

func newExtendedLayer(base data.PartitionedLayer) *extendedLayer {
	attrs := map[string]interface{}{}
	for k, v := range base.Attributes() {
		attrs[k] = v
	}
	return &extendedLayer{PartitionedLayer: base, attributes: attrs}
}

func (l *extendedLayer) Attributes() map[string]interface{} { return l.attributes }

// insetOnce runs a single, unflattened inset pass over parts and returns it
// as one flat slice, the shape modifier/support.go needs throughout.
func insetOnce(cl clip.Clipper, parts []data.LayerPart, offset data.Micrometer) []data.LayerPart {
	var out []data.LayerPart
	for _, rings := range cl.InsetLayer(parts, offset, 1) {
		out = append(out, clip.ToOneDimension(rings)...)
	}
	return out
}

type supportDetectorModifier struct {
	handler.Named
	settings *data.Settings
}

// NewSupportDetectorModifier calculates the areas which need support and
// saves them as the "support" attribute ([]data.LayerPart). It is a
// preprocessing modifier; NewSupportGeneratorModifier consumes its output.
//
// How it basically works:
// ### = the model
//
// ############
// ############
// ### ___d____  |
// ### |     /   |
// ### |    /    |
// ### h   /     | h = 1 layer height
// ### |  /      |
// ### |θ/       |
// ### |/        |
//
// d = h * tan θ
func NewSupportDetectorModifier(settings *data.Settings) handler.LayerModifier {
	return &supportDetectorModifier{
		Named:    handler.Named{Name: "SupportDetector"},
		settings: settings,
	}
}

func (m *supportDetectorModifier) Init(settings *data.Settings) { m.settings = settings }

func (m *supportDetectorModifier) Modify(layers []data.PartitionedLayer) error {
	support := m.settings.Print.Support
	if !support.Enabled {
		return nil
	}

	for layerNr := range layers {
		if layerNr == len(layers)-1 || layerNr < support.TopGapLayers {
			continue
		}

		distance := float64(m.settings.Print.LayerThickness.ToMicrometer()) * math.Tan(data.ToRadians(support.ThresholdAngle))

		cl := clip.NewClipper()
		offsetLayer := insetOnce(cl, layers[layerNr].LayerParts(), -data.Micrometer(math.Round(distance)))

		supportAreas, ok := cl.Difference(layers[layerNr+1].LayerParts(), offsetLayer)
		if !ok {
			return errors.New("could not calculate the support parts")
		}

		supportAreas = insetOnce(cl, supportAreas, -support.PatternSpacing.ToMicrometer()*3)

		newLayer := newExtendedLayer(layers[layerNr-support.TopGapLayers])
		if len(supportAreas) > 0 {
			newLayer.attributes["support"] = supportAreas
		}
		layers[layerNr-support.TopGapLayers] = newLayer
	}

	return nil
}

type supportGeneratorModifier struct {
	handler.Named
	settings *data.Settings
}

// NewSupportGeneratorModifier grows the areas flagged by the detector down
// to the first layer or until they touch the model, and splits off the
// top InterfaceLayers worth into a separate "supportInterface" attribute
// that print settings can give a denser pattern.
func NewSupportGeneratorModifier(settings *data.Settings) handler.LayerModifier {
	return &supportGeneratorModifier{
		Named:    handler.Named{Name: "SupportGenerator"},
		settings: settings,
	}
}

func (m *supportGeneratorModifier) Init(settings *data.Settings) { m.settings = settings }

func (m *supportGeneratorModifier) Modify(layers []data.PartitionedLayer) error {
	support := m.settings.Print.Support
	var lastSupport []data.LayerPart

	for layerNr := len(layers) - 1; layerNr >= 0; layerNr-- {
		if !support.Enabled || layerNr == 0 {
			return nil
		}

		currentSupport := lastSupport
		if currentSupport == nil {
			var err error
			currentSupport, err = PartsAttribute(layers[layerNr], "support")
			if err != nil {
				return err
			}
		}

		belowSupport, err := PartsAttribute(layers[layerNr-1], "support")
		if err != nil {
			return err
		}

		if len(currentSupport) == 0 && len(belowSupport) == 0 {
			continue
		}

		cl := clip.NewClipper()

		result, ok := cl.Union(currentSupport, belowSupport)
		if !ok {
			return fmt.Errorf("could not union the supports for layer %d to generate support", layerNr)
		}

		biggerLayer := insetOnce(cl, layers[layerNr-1].LayerParts(), -support.Gap.ToMicrometer())

		actualSupport, ok := cl.Difference(result, biggerLayer)
		if !ok {
			return fmt.Errorf("could not subtract the model from the supports for layer %d", layerNr)
		}

		var interfaceParts, actualWithoutInterfaceParts []data.LayerPart

		if len(actualSupport) > 0 {
			layerNrAboveInterface := layerNr + support.InterfaceLayers - 1
			if layerNrAboveInterface >= len(layers) {
				layerNrAboveInterface = len(layers) - 1
			}

			c := clip.NewClipper()

			supportAboveInterface, err := PartsAttribute(layers[layerNrAboveInterface], "fullSupport")
			if err != nil {
				return err
			}

			interfaceParts, ok = c.Difference(actualSupport, supportAboveInterface)
			if !ok {
				return errors.New("error while calculating interface parts")
			}

			actualWithoutInterfaceParts, ok = c.Difference(actualSupport, interfaceParts)
			if !ok {
				return errors.New("error while calculating the actual support without the interface parts")
			}
		}

		lastSupport = actualSupport

		newLayer := newExtendedLayer(layers[layerNr-1])
		if len(actualSupport) > 0 {
			newLayer.attributes["fullSupport"] = actualSupport
		}
		if len(interfaceParts) > 0 {
			newLayer.attributes["supportInterface"] = interfaceParts
		}
		if len(actualWithoutInterfaceParts) > 0 {
			newLayer.attributes["support"] = actualWithoutInterfaceParts
		} else {
			newLayer.attributes["support"] = []data.LayerPart{}
		}
		layers[layerNr-1] = newLayer
	}
	return nil
}
