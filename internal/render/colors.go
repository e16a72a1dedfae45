package render

import "image/color"

// cellPalette assigns each measurement cell a stable series color so a cell
// looks the same in every chart it appears in.
var cellPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// CellColor returns the series color for a 1-based cell number.
func CellColor(cell int) color.RGBA {
	return cellPalette[(cell-1)%len(cellPalette)]
}

// fitLineColor is the overlay color for fitted lines, slightly translucent
// so the measured points stay visible underneath.
var fitLineColor = color.RGBA{A: 0xb2}
