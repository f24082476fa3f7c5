package glrender

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

const captionSize = 14

var captionFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// DrawCaption draws text onto dst with its baseline starting at dot.
func DrawCaption(dst draw.Image, text string, dot image.Point, c color.Color) error {
	ttf, err := captionFont()
	if err != nil {
		return err
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: captionSize, Hinting: font.HintingFull})
	defer face.Close()
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(text)
	return nil
}

// CaptionWidth returns the width in pixels text occupies when drawn with [DrawCaption].
func CaptionWidth(text string) (int, error) {
	ttf, err := captionFont()
	if err != nil {
		return 0, err
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: captionSize})
	defer face.Close()
	return font.MeasureString(face, text).Ceil(), nil
}
