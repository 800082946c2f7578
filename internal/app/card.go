package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/motion_analyzer/internal/store"
)

const (
	cardWidth  = 360
	cardHeight = 240
	lineHeight = 15
)

var (
	cardBackground = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	cardText       = color.RGBA{0x20, 0x20, 0x20, 0xff}
	cardBarTrack   = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}

	// severity 0..4, green to red
	severityColors = [5]color.RGBA{
		{0x2e, 0x9e, 0x4f, 0xff},
		{0x9b, 0xc5, 0x3d, 0xff},
		{0xf2, 0xc1, 0x2e, 0xff},
		{0xe8, 0x7a, 0x24, 0xff},
		{0xc6, 0x28, 0x28, 0xff},
	}
)

// RenderCard draws a summary card for an analysis: header lines, a severity
// bar, and one bar per scored feature.
func RenderCard(r *store.Record) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{cardBackground}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cardText},
		Face: basicfont.Face7x13,
	}
	text := func(x, y int, s string) {
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(s)
	}

	rep := r.Analysis.Report
	d := r.Analysis.Diagnosis

	text(10, 18, fmt.Sprintf("Patient %s  %s", orDash(r.PatientCode), orDash(r.Exercise)))
	text(10, 18+lineHeight, fmt.Sprintf("Active %s  reps %d  asym %.2f", rep.ActiveSide, rep.Active.NReps, rep.AsymmetryMagnitude))
	text(10, 18+2*lineHeight, fmt.Sprintf("Severity %d/4 %s  conf %.2f", d.SeverityScore, d.SeverityLabel, d.Confidence))

	sev := min(max(d.SeverityScore, 0), 4)
	fillBar(img, 10, 18+3*lineHeight-8, cardWidth-20, 10, float64(sev)/4, severityColors[sev])

	y := 18 + 5*lineHeight
	for _, fs := range d.FeatureScores {
		text(10, y, fmt.Sprintf("%-18s %4.1f", fs.Name, fs.Score))
		level := min(int(fs.Score+0.5), 4)
		fillBar(img, 180, y-9, cardWidth-190, 9, fs.Score/4, severityColors[level])
		y += lineHeight
	}
	if d.NoMovement {
		text(10, y+4, "No repetitions detected")
	}
	return img
}

func fillBar(img draw.Image, x, y, w, h int, frac float64, c color.Color) {
	frac = min(max(frac, 0), 1)
	track := image.Rect(x, y, x+w, y+h)
	draw.Draw(img, track, &image.Uniform{cardBarTrack}, image.Point{}, draw.Src)
	filled := image.Rect(x, y, x+int(float64(w)*frac), y+h)
	draw.Draw(img, filled, &image.Uniform{c}, image.Point{}, draw.Src)
}

// WriteCard encodes the card as PNG.
func WriteCard(w io.Writer, r *store.Record) error {
	return png.Encode(w, RenderCard(r))
}
