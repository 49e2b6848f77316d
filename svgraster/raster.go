// Implements point-in-fill queries for svg shapes,
// by wrapping the rasterx filler.
package svgraster

import (
	"image"
	"image/color"

	"github.com/srwiley/rasterx"

	"github.com/benoitkugler/svgmap/svgpath"
)

var _ svgpath.Adder = (*rasterx.Filler)(nil) // assert interface conformance

// DefaultSamplesPerUnit is the resolution used by Contains:
// the probed area is a square of side 1/16 document unit.
const DefaultSamplesPerUnit = 16

// Prober rasterizes paths into a single pixel centered on the
// queried point. The point is inside when the pixel is at least
// half covered.
// A Prober reuses its buffers and is not safe for concurrent use.
type Prober struct {
	// SamplesPerUnit is the number of pixels per document unit.
	SamplesPerUnit float64

	img    *image.RGBA
	filler *rasterx.Filler // we use separated instance
}

// NewProber returns a prober with DefaultSamplesPerUnit.
func NewProber() *Prober {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	scanner := rasterx.NewScannerGV(1, 1, img, img.Bounds())
	return &Prober{
		SamplesPerUnit: DefaultSamplesPerUnit,
		img:            img,
		filler:         rasterx.NewFiller(1, 1, scanner),
	}
}

// Contains reports whether (x, y) is inside the fill area of path,
// using the non-zero winding rule if nonZero is true, the even-odd rule
// otherwise.
func (pr *Prober) Contains(path svgpath.Path, x, y float64, nonZero bool) bool {
	minX, minY, maxX, maxY, ok := path.Extent()
	if !ok || x < minX || x > maxX || y < minY || y > maxY {
		return false
	}
	k := pr.SamplesPerUnit
	if k <= 0 {
		k = DefaultSamplesPerUnit
	}
	// move (x, y) to the center of the pixel
	m := svgpath.Identity.Translate(0.5, 0.5).Scale(k, k).Translate(-x, -y)

	pr.clear()
	pr.filler.SetWinding(nonZero)
	pr.filler.SetColor(color.Black)
	path.Transform(m).AddTo(pr.filler)
	pr.filler.Draw()
	return pr.img.RGBAAt(0, 0).A >= 0x80
}

func (pr *Prober) clear() {
	pr.filler.Clear()
	for i := range pr.img.Pix {
		pr.img.Pix[i] = 0
	}
}

// Contains is a shortcut for NewProber().Contains.
func Contains(path svgpath.Path, x, y float64, nonZero bool) bool {
	return NewProber().Contains(path, x, y, nonZero)
}
