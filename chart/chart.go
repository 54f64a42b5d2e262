// Package chart draws sale price against square footage, ZIP code and year
// built as three stacked panels.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"nyc-sales-report/models"
)

// Title is the heading shown above the three panels.
const Title = "Price vs. Square Footage, Zip Code, and Year Built in Manhattan"

// Kind selects how each panel draws its points.
type Kind string

const (
	KindBar     Kind = "bar"
	KindScatter Kind = "scatter"
)

// Format is the image encoding Render produces.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ErrNoData is returned when there are no sales to plot.
var ErrNoData = errors.New("chart: no sales to plot")

// Options controls Render. Zero values fall back to a bar chart, SVG, 8x10 inches.
type Options struct {
	Kind   Kind
	Format Format
	Width  vg.Length
	Height vg.Length
}

func (o Options) withDefaults() Options {
	if o.Kind == "" {
		o.Kind = KindBar
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if o.Width <= 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height <= 0 {
		o.Height = 10 * vg.Inch
	}
	return o
}

// maxTickLabels caps how many bar labels are printed on one axis.
const maxTickLabels = 24

type panel struct {
	title  string
	xLabel string
	color  color.Color
	x      func(*models.Sale) float64
}

var panels = []panel{
	{
		title:  "Price vs. Square footage in Manhattan",
		xLabel: "Square ft",
		color:  color.RGBA{B: 255, A: 255},
		x:      func(s *models.Sale) float64 { return s.GrossSquareFeet },
	},
	{
		title:  "Price vs. ZIP Code in Manhattan",
		xLabel: "Zip Code",
		color:  color.RGBA{G: 128, A: 255},
		x:      func(s *models.Sale) float64 { return s.ZipCode },
	},
	{
		title:  "Price vs. Year Built in Manhattan",
		xLabel: "Year Built",
		color:  color.RGBA{R: 255, A: 255},
		x:      func(s *models.Sale) float64 { return s.YearBuilt },
	},
}

type canvas interface {
	vg.CanvasSizer
	io.WriterTo
}

// Render draws the three panels for sales and writes the encoded image to w.
func Render(w io.Writer, sales []*models.Sale, opts Options) error {
	if len(sales) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	plots := make([][]*plot.Plot, len(panels))
	for i, pn := range panels {
		p, err := buildPanel(pn, sales, opts.Kind)
		if err != nil {
			return fmt.Errorf("chart: %s: %w", pn.title, err)
		}
		plots[i] = []*plot.Plot{p}
	}

	var c canvas
	switch opts.Format {
	case FormatSVG:
		c = vgsvg.New(opts.Width, opts.Height)
	case FormatPNG:
		c = vgimg.PngCanvas{Canvas: vgimg.New(opts.Width, opts.Height)}
	default:
		return fmt.Errorf("chart: unknown format %q", opts.Format)
	}

	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadY:      6 * vg.Millimeter,
		PadTop:    3 * vg.Millimeter,
		PadBottom: 3 * vg.Millimeter,
		PadLeft:   3 * vg.Millimeter,
		PadRight:  3 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write %s: %w", opts.Format, err)
	}
	return nil
}

func buildPanel(pn panel, sales []*models.Sale, kind Kind) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = pn.title
	p.X.Label.Text = pn.xLabel
	p.Y.Label.Text = "Price"

	switch kind {
	case KindScatter:
		pts := make(plotter.XYs, len(sales))
		for i, s := range sales {
			pts[i].X = pn.x(s)
			pts[i].Y = s.SalePrice
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = pn.color
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)

	case KindBar:
		labels, heights := tallestBars(sales, pn.x)
		bars, err := plotter.NewBarChart(heights, vg.Points(4))
		if err != nil {
			return nil, err
		}
		bars.Color = pn.color
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalX(thinLabels(labels, maxTickLabels)...)

	default:
		return nil, fmt.Errorf("unknown chart kind %q", kind)
	}
	return p, nil
}

// tallestBars groups sales by x and keeps the highest price per x, which is
// what overlapping bars at the same position end up showing. Bars are
// ordered by ascending x.
func tallestBars(sales []*models.Sale, x func(*models.Sale) float64) ([]string, plotter.Values) {
	tallest := make(map[float64]float64)
	for _, s := range sales {
		k := x(s)
		if cur, ok := tallest[k]; !ok || s.SalePrice > cur {
			tallest[k] = s.SalePrice
		}
	}

	keys := make([]float64, 0, len(tallest))
	for k := range tallest {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	labels := make([]string, len(keys))
	heights := make(plotter.Values, len(keys))
	for i, k := range keys {
		labels[i] = strconv.FormatFloat(k, 'f', -1, 64)
		heights[i] = tallest[k]
	}
	return labels, heights
}

// thinLabels blanks labels so at most limit of them are shown, evenly spaced.
func thinLabels(labels []string, limit int) []string {
	if len(labels) <= limit || limit <= 0 {
		return labels
	}
	step := (len(labels) + limit - 1) / limit
	out := make([]string, len(labels))
	for i := range labels {
		if i%step == 0 {
			out[i] = labels[i]
		}
	}
	return out
}

// ParseKind validates a configured chart kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindBar, KindScatter:
		return Kind(s), nil
	}
	return "", fmt.Errorf("chart: unknown kind %q (want bar or scatter)", s)
}

// ParseFormat validates a configured image format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatSVG, FormatPNG:
		return Format(s), nil
	}
	return "", fmt.Errorf("chart: unknown format %q (want svg or png)", s)
}
