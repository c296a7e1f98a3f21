package stats

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"morphogen/internal/model"
)

// cellPixels is the edge length of one cell in rendered images.
const cellPixels = 8

var (
	paletteBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	paletteBlack      = color.RGBA{A: 255}
	paletteRed        = color.RGBA{R: 200, A: 255}
	paletteBlue       = color.RGBA{B: 200, A: 255}
)

// RenderImage draws a grid as an RGBA image, one cellPixels square per cell.
// Three-state grids render color A red and color B blue; two-state grids
// render live cells black. Background is white in both.
func RenderImage(grid model.Grid, alphabet model.Alphabet) (*image.RGBA, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, grid.Side*cellPixels, grid.Side*cellPixels))
	for row := 0; row < grid.Side; row++ {
		for col := 0; col < grid.Side; col++ {
			cell := image.Rect(col*cellPixels, row*cellPixels, (col+1)*cellPixels, (row+1)*cellPixels)
			draw.Draw(img, cell, image.NewUniform(cellColor(grid.At(row, col), alphabet)), image.Point{}, draw.Src)
		}
	}
	return img, nil
}

// RenderPNG writes a grid to path as a PNG image.
func RenderPNG(path string, grid model.Grid, alphabet model.Alphabet) error {
	img, err := RenderImage(grid, alphabet)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return err
	}
	return file.Sync()
}

func cellColor(state model.CellState, alphabet model.Alphabet) color.RGBA {
	switch state {
	case model.ColorA:
		if alphabet == model.ThreeState {
			return paletteRed
		}
		return paletteBlack
	case model.ColorB:
		return paletteBlue
	default:
		return paletteBackground
	}
}
