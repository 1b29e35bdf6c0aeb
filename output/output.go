// Package output echoes command results to the terminal and keeps a plain
// copy of everything echoed so it can be mailed afterwards.
package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

var sgrPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Output is the sink every command writes its result lines to.
type Output struct {
	w      io.Writer
	red    *color.Color
	green  *color.Color
	blue   *color.Color
	echoed strings.Builder
	lines  int
}

// New returns an Output writing to w. Colors are forced on or off per
// Output, whatever color.NoColor says.
func New(w io.Writer, colored bool) *Output {
	o := &Output{
		w:     w,
		red:   color.New(color.FgRed),
		green: color.New(color.FgGreen),
		blue:  color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{o.red, o.green, o.blue} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return o
}

// Echo prints line and records it without color codes.
func (o *Output) Echo(line string) {
	fmt.Fprintln(o.w, line)
	o.echoed.WriteString(Strip(line))
	o.echoed.WriteByte('\n')
	o.lines++
}

func (o *Output) Red(s string) string   { return o.red.Sprint(s) }
func (o *Output) Green(s string) string { return o.green.Sprint(s) }
func (o *Output) Blue(s string) string  { return o.blue.Sprint(s) }

// Text returns everything echoed so far, one line per Echo call.
func (o *Output) Text() string {
	return o.echoed.String()
}

// Lines returns how many lines were echoed.
func (o *Output) Lines() int {
	return o.lines
}

// Strip removes ANSI SGR sequences from s.
func Strip(s string) string {
	return sgrPattern.ReplaceAllString(s, "")
}
