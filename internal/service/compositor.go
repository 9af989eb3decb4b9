package service

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/guttosm/patchwork-service/internal/domain/model"
	xdraw "golang.org/x/image/draw"
)

// JPEGQuality is the fixed encoding quality of every patchwork.
const JPEGQuality = 90

// Compose lays tiles out row-major on a canvas sized for params. Cells beyond
// the last tile keep the background: white with borders, black without.
func Compose(tiles []image.Image, params model.PatchworkParams) *image.RGBA {
	width, height := params.Dimensions()
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	bg := color.RGBA{A: 0xff}
	if !params.NoBorder() {
		bg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)

	step := params.ImageSize + params.BorderSize()
	for i, tile := range tiles {
		if i >= params.Cells() {
			break
		}
		row, col := i/params.Cols, i%params.Cols
		cell := image.Rect(0, 0, params.ImageSize, params.ImageSize).Add(image.Pt(col*step, row*step))

		tb := tile.Bounds()
		if tb.Dx() == params.ImageSize && tb.Dy() == params.ImageSize {
			xdraw.Draw(canvas, cell, tile, tb.Min, xdraw.Src)
		} else {
			xdraw.CatmullRom.Scale(canvas, cell, tile, tb, xdraw.Src, nil)
		}
	}
	return canvas
}

// Encode writes img as a JPEG at JPEGQuality.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode patchwork: %w", err)
	}
	return buf.Bytes(), nil
}

// Composite composes and encodes in one step.
func Composite(tiles []image.Image, params model.PatchworkParams) (model.PatchworkResult, error) {
	canvas := Compose(tiles, params)
	data, err := Encode(canvas)
	if err != nil {
		return model.PatchworkResult{}, err
	}
	b := canvas.Bounds()
	return model.PatchworkResult{Image: data, Width: b.Dx(), Height: b.Dy()}, nil
}
