package render

import (
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// parseColor understands the css notations used in chart specs:
// #RRGGBB, #RRGGBBAA, rgba(...), rgb(...) and color names.
func parseColor(s string) drawing.Color {
	if strings.HasPrefix(s, "#") && len(s) == 9 {
		alpha, err := strconv.ParseUint(s[7:9], 16, 8)
		if err != nil {
			return drawing.ColorFromHex(s[:7])
		}
		return drawing.ColorFromHex(s[:7]).WithAlpha(uint8(alpha))
	}
	return drawing.ParseColor(s)
}
