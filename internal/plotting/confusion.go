// Package plotting renders evaluation artifacts, confusion matrices and
// class activation maps, to image files.
package plotting

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// matrixGrid adapts a dense matrix to the heat map grid, flipping rows so
// row 0 of the matrix renders at the top of the plot.
type matrixGrid struct {
	m *mat.Dense
}

func (g matrixGrid) Dims() (int, int) {
	r, c := g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// ConfusionPlot writes a heat map of the confusion matrix with one
// annotated cell per entry. classes names the rows in matrix order. The
// output format follows the file extension.
func ConfusionPlot(m *mat.Dense, classes []string, path string) error {
	rows, cols := m.Dims()
	if rows != len(classes) || cols != len(classes) {
		return fmt.Errorf("%dx%d matrix against %d class names", rows, cols, len(classes))
	}

	p := plot.New()
	p.Title.Text = "confusion matrix"
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "actual"

	grid := matrixGrid{m: m}
	heat := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if heat.Min == heat.Max {
		heat.Max = heat.Min + 1
	}
	p.Add(heat)

	labels, err := cellLabels(m, heat.Min, heat.Max)
	if err != nil {
		return err
	}
	p.Add(labels)

	p.NominalX(classes...)
	flipped := make([]string, len(classes))
	for i, name := range classes {
		flipped[len(classes)-1-i] = name
	}
	p.NominalY(flipped...)

	if err := p.Save(4*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving confusion plot: %w", err)
	}
	return nil
}

// cellLabels annotates every cell with its value, in white over dark
// cells and black over light ones.
func cellLabels(m *mat.Dense, lo, hi float64) (*plotter.Labels, error) {
	rows, cols := m.Dims()
	xy := plotter.XYLabels{}
	var dark []bool
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := m.At(r, c)
			xy.XYs = append(xy.XYs, plotter.XY{X: float64(c), Y: float64(rows - 1 - r)})
			xy.Labels = append(xy.Labels, fmt.Sprintf("%.2f", v))
			dark = append(dark, v > lo+(hi-lo)/2)
		}
	}

	labels, err := plotter.NewLabels(xy)
	if err != nil {
		return nil, fmt.Errorf("building cell labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
		if dark[i] {
			labels.TextStyle[i].Color = color.White
		} else {
			labels.TextStyle[i].Color = color.Black
		}
	}
	return labels, nil
}
