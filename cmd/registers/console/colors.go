package console

import (
	"fmt"

	"github.com/fatih/color"
)

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

// Hex renders v as a zero-padded hex number of the given byte width.
func Hex(v uint64, width int) string {
	return White(fmt.Sprintf("0x%0*x", 2*width, v))
}
