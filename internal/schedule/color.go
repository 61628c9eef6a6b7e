package schedule

import (
	"fmt"
	"hash/fnv"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	barSaturation = 0.65
	barLightness  = 0.50
)

// Color is a task's display colour, a hue on a fixed saturation/lightness.
type Color struct {
	Hue int
}

// GenerateTaskColor derives a stable colour from the FNV-1a hash of the task id.
func GenerateTaskColor(id string) Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum32()
	return Color{Hue: int(sum % 360)}
}

// CSS renders the colour as a CSS hsl() value.
func (c Color) CSS() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.Hue, int(barSaturation*100), int(barLightness*100))
}

// Hex renders the colour as #rrggbb.
func (c Color) Hex() string {
	return colorful.Hsl(float64(c.Hue), barSaturation, barLightness).Clamped().Hex()
}
