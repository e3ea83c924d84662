package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/alanzhou93/substorm-detection/internal/dataset"
)

// camGrid exposes a (samples, time) activation array as a heat map grid.
type camGrid struct {
	cam *dataset.Array
}

func (g camGrid) Dims() (int, int) {
	shape := g.cam.Shape()
	return shape[1], shape[0]
}

func (g camGrid) Z(c, r int) float64 { return g.cam.At(r, c) }
func (g camGrid) X(c int) float64    { return float64(c) }
func (g camGrid) Y(r int) float64    { return float64(r) }

// CAMPlot writes a heat map of class activation maps, one row per sample
// over the input time axis.
func CAMPlot(cam *dataset.Array, path string) error {
	shape := cam.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("activation maps have shape %v, want (samples, time)", shape)
	}
	if shape[0] == 0 || shape[1] == 0 {
		return fmt.Errorf("no activations to plot")
	}

	p := plot.New()
	p.Title.Text = "class activation maps"
	p.X.Label.Text = "time step"
	p.Y.Label.Text = "sample"

	heat := plotter.NewHeatMap(camGrid{cam: cam}, palette.Heat(12, 1))
	if heat.Min == heat.Max {
		heat.Max = heat.Min + 1
	}
	p.Add(heat)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving activation plot: %w", err)
	}
	return nil
}

// ActivationOverlay writes one sample's signal as a line with each time
// step's marker colored by its activation, highlighting the stretch the
// classifier keyed on.
func ActivationOverlay(signal, cam []float64, path string) error {
	if len(signal) == 0 {
		return fmt.Errorf("no signal to plot")
	}
	if len(signal) != len(cam) {
		return fmt.Errorf("%d signal points against %d activations", len(signal), len(cam))
	}

	xys := make(plotter.XYs, len(signal))
	for i, v := range signal {
		xys[i] = plotter.XY{X: float64(i), Y: v}
	}

	p := plot.New()
	p.Title.Text = "class activation"
	p.X.Label.Text = "time step"

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("building signal line: %w", err)
	}
	line.Color = color.Gray{Y: 0x88}
	p.Add(line)

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("building activation markers: %w", err)
	}
	colors := palette.Heat(12, 1).Colors()
	lo, hi := floats.Min(cam), floats.Max(cam)
	scatter.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		idx := 0
		if hi > lo {
			idx = int((cam[i] - lo) / (hi - lo) * float64(len(colors)-1))
		}
		return draw.GlyphStyle{
			Color:  colors[idx],
			Radius: vg.Points(2),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(scatter)

	if err := p.Save(6*vg.Inch, 3*vg.Inch, path); err != nil {
		return fmt.Errorf("saving activation overlay: %w", err)
	}
	return nil
}
