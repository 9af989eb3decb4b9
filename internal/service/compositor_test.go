//go:build !integration

package service

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/guttosm/patchwork-service/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridParams(rows, cols, size int, border model.Border) model.PatchworkParams {
	return model.PatchworkParams{
		Username:  "alice",
		Period:    "7day",
		Rows:      rows,
		Cols:      cols,
		ImageSize: size,
		Border:    border,
		Provider:  model.ProviderLastFM,
	}
}

func TestCompose_Geometry(t *testing.T) {
	params := gridParams(2, 2, 100, model.BorderNormal)
	tiles := []image.Image{solid(100, 100, red), solid(100, 100, green), solid(100, 100, blue), solid(100, 100, black)}

	canvas := Compose(tiles, params)

	assert.Equal(t, image.Rect(0, 0, 201, 201), canvas.Bounds())
	assert.Equal(t, red, canvas.RGBAAt(0, 0))
	assert.Equal(t, red, canvas.RGBAAt(99, 99))
	assert.Equal(t, white, canvas.RGBAAt(100, 50), "vertical separator")
	assert.Equal(t, white, canvas.RGBAAt(50, 100), "horizontal separator")
	assert.Equal(t, green, canvas.RGBAAt(101, 0))
	assert.Equal(t, blue, canvas.RGBAAt(0, 101))
	assert.Equal(t, black, canvas.RGBAAt(101, 101), "tile (1,1) starts at (101,101)")
	assert.Equal(t, black, canvas.RGBAAt(200, 200))
}

func TestCompose_Borderless(t *testing.T) {
	params := gridParams(1, 3, 50, model.BorderNone)

	canvas := Compose([]image.Image{solid(50, 50, red)}, params)

	assert.Equal(t, image.Rect(0, 0, 150, 50), canvas.Bounds())
	assert.Equal(t, red, canvas.RGBAAt(49, 0))
	assert.Equal(t, black, canvas.RGBAAt(50, 0), "empty cells keep the black background")
	assert.Equal(t, black, canvas.RGBAAt(149, 49))
}

func TestCompose_PartialCoverage(t *testing.T) {
	params := gridParams(3, 3, 50, model.BorderNormal)

	canvas := Compose([]image.Image{solid(50, 50, red), solid(50, 50, blue)}, params)

	assert.Equal(t, red, canvas.RGBAAt(10, 10))
	assert.Equal(t, blue, canvas.RGBAAt(61, 10))
	for cell := 2; cell < 9; cell++ {
		row, col := cell/3, cell%3
		assert.Equal(t, white, canvas.RGBAAt(col*51+25, row*51+25), "cell %d", cell)
	}
}

func TestCompose_IgnoresExtraTilesAndRescales(t *testing.T) {
	params := gridParams(1, 1, 40, model.BorderNormal)

	canvas := Compose([]image.Image{solid(80, 80, green), solid(40, 40, red)}, params)

	assert.Equal(t, image.Rect(0, 0, 40, 40), canvas.Bounds())
	assert.True(t, near(canvas.RGBAAt(20, 20), green, 2))
}

func TestComposite_EncodesJPEG(t *testing.T) {
	params := gridParams(2, 2, 100, model.BorderNormal)

	result, err := Composite([]image.Image{solid(100, 100, red)}, params)

	require.NoError(t, err)
	assert.Equal(t, 201, result.Width)
	assert.Equal(t, 201, result.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(result.Image))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 201, 201), decoded.Bounds())
	assert.True(t, near(decoded.At(50, 50), red, 16))
	assert.True(t, near(decoded.At(150, 150), white, 16))
}
