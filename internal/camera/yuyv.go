package camera

import (
	"fmt"
	"image"
	"image/color"
)

// DecodeYUYV converts a packed YUYV 4:2:2 frame into RGBA.
func DecodeYUYV(frame []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return nil, fmt.Errorf("invalid YUYV frame size %dx%d", width, height)
	}
	need := width * height * 2
	if len(frame) < need {
		return nil, fmt.Errorf("short YUYV frame: %d < %d", len(frame), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < need; i, j = i+4, j+8 {
		y0, cb, y1, cr := frame[i], frame[i+1], frame[i+2], frame[i+3]

		r, g, b := color.YCbCrToRGB(y0, cb, cr)
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = r, g, b, 255

		r, g, b = color.YCbCrToRGB(y1, cb, cr)
		img.Pix[j+4], img.Pix[j+5], img.Pix[j+6], img.Pix[j+7] = r, g, b, 255
	}
	return img, nil
}
