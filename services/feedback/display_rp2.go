//go:build rp2040 || rp2350

package feedback

import (
	"image/color"

	"datalogger-go/types"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// OLED renders the four lines on a 128x64 SSD1306.
type OLED struct {
	dev *ssd1306.Device
}

func NewOLED(dev *ssd1306.Device) *OLED { return &OLED{dev: dev} }

func (o *OLED) Render(s types.Screen) error {
	o.dev.ClearBuffer()
	for i, line := range s {
		// Org01 baseline; 16 px per line fills 64 rows.
		tinyfont.WriteLine(o.dev, &tinyfont.Org01, 2, int16(10+16*i), line, white)
	}
	return o.dev.Display()
}
