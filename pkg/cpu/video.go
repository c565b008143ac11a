package cpu

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"hackvm/pkg/grid"
)

const (
	ScreenWidth  = 512
	ScreenHeight = 256

	wordsPerRow = ScreenWidth / 16
)

// forEachPixel calls fn for every set pixel of the screen memory map. Each
// row is 32 words; the least significant bit of a word is its leftmost pixel.
func (c *CPU) forEachPixel(fn func(x, y int)) {
	for i := 0; i < ScreenWords; i++ {
		word := c.RAM[int(ScreenBase)+i]
		if word == 0 {
			continue
		}
		col, row := grid.GetGridCoords(i, wordsPerRow)
		for bit := 0; bit < 16; bit++ {
			if word&(1<<bit) != 0 {
				fn(col*16+bit, row)
			}
		}
	}
}

// ScreenImage decodes the screen memory map into a 512×256 grayscale image
// with black pixels for set bits.
func (c *CPU) ScreenImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	c.forEachPixel(func(x, y int) {
		img.SetGray(x, y, color.Gray{Y: 0})
	})
	return img
}

// ScreenRGBA decodes the screen into RGBA8888 bytes (512*256*4), suitable for
// uploading to a GPU texture.
func (c *CPU) ScreenRGBA() []byte {
	pixels := make([]byte, ScreenWidth*ScreenHeight*4)
	for i := range pixels {
		pixels[i] = 0xFF
	}
	c.forEachPixel(func(x, y int) {
		p := (y*ScreenWidth + x) * 4
		pixels[p+0] = 0
		pixels[p+1] = 0
		pixels[p+2] = 0
	})
	return pixels
}

// SaveScreenshot writes the screen as a PNG, enlarged by an integer scale.
func (c *CPU) SaveScreenshot(filename string, scale int) error {
	if scale < 1 {
		return fmt.Errorf("invalid screenshot scale %d", scale)
	}
	var img image.Image = c.ScreenImage()
	if scale > 1 {
		dst := image.NewGray(image.Rect(0, 0, ScreenWidth*scale, ScreenHeight*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
