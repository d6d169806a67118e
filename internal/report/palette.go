package report

import (
	"fmt"
	"strconv"
)

// Color is the chart styling of one series
type Color struct {
	Hue        float64 `json:"hue"`
	Background string  `json:"backgroundColor"`
	Border     string  `json:"borderColor"`
}

// Hues divides the colour wheel evenly between n series. n <= 0 yields none.
func Hues(n int) []float64 {
	if n <= 0 {
		return nil
	}
	step := 360 / float64(n)
	hues := make([]float64, n)
	for i := range hues {
		hues[i] = float64(i) * step
	}
	return hues
}

// HSL formats a pastel colour with the given alpha
func HSL(hue, alpha float64) string {
	return fmt.Sprintf("hsl(%s, 100%%, 70%%, %s)", formatFloat(hue), formatFloat(alpha))
}

// Palette returns the colours of n series in series order
func Palette(n int) []Color {
	hues := Hues(n)
	colors := make([]Color, len(hues))
	for i, h := range hues {
		colors[i] = Color{
			Hue:        h,
			Background: HSL(h, 0.5),
			Border:     HSL(h, 0.75),
		}
	}
	return colors
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
