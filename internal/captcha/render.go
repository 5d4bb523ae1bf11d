package captcha

import (
	"bytes"
	"fmt"
	"image/png"
	"math/rand"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce   sync.Once
	parsedFont *truetype.Font
	fontErr    error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		parsedFont, fontErr = truetype.Parse(goregular.TTF)
	})
	return parsedFont, fontErr
}

// Render draws text as a PNG with arc and dot noise. rnd drives every random
// choice so tests can render deterministically.
func Render(text string, width, height int, rnd *rand.Rand) ([]byte, error) {
	font, err := loadFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	w, h := float64(width), float64(height)
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// arcs behind the glyphs
	for i := 0; i < 3; i++ {
		dc.SetRGBA(rnd.Float64()*0.6, rnd.Float64()*0.6, rnd.Float64()*0.6, 0.7)
		dc.SetLineWidth(1 + rnd.Float64())
		start := rnd.Float64() * gg.Radians(360)
		dc.DrawArc(rnd.Float64()*w, rnd.Float64()*h, h/2+rnd.Float64()*h, start, start+gg.Radians(60+rnd.Float64()*90))
		dc.Stroke()
	}

	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: h * 0.6}))
	step := w / float64(len(text)+1)
	for i, ch := range text {
		x := step * float64(i+1)
		y := h / 2
		dc.Push()
		dc.RotateAbout(gg.Radians(rnd.Float64()*30-15), x, y)
		dc.SetRGB(0, 0.07, 0)
		dc.DrawStringAnchored(string(ch), x, y, 0.5, 0.35)
		dc.Pop()
	}

	// dots on top
	for i := 0; i < width*height/40; i++ {
		dc.SetRGBA(rnd.Float64(), rnd.Float64(), rnd.Float64(), 0.8)
		dc.DrawPoint(rnd.Float64()*w, rnd.Float64()*h, 0.8)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode captcha png: %w", err)
	}
	return buf.Bytes(), nil
}
