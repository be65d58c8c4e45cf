// Package viz renders a live terminal frame per tick when faultsim is run
// with --viz, in place of writing the dataset tensors. It does not
// attempt the downstream dataset pipeline's real plotting; it is a
// minimal animation over the same per-tick snapshots the recorder sees.
package viz

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"faultsim/internal/simnode"
)

var (
	nominalColor  = lipgloss.Color("76")
	invalidColor  = lipgloss.Color("214")
	watchdogColor = lipgloss.Color("204")
	headerColor   = lipgloss.Color("99")
	dimColor      = lipgloss.Color("243")
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	nameStyle   = lipgloss.NewStyle().Bold(true).Width(12)
	dimStyle    = lipgloss.NewStyle().Foreground(dimColor)
)

// Animator renders one frame per tick to an io.Writer (typically stdout).
type Animator struct {
	out io.Writer
}

// NewAnimator returns an Animator writing frames to out. Color output
// follows the detected terminal profile when out is a terminal and
// degrades to plain text otherwise.
func NewAnimator(out io.Writer) *Animator {
	if isTerminal(out) {
		lipgloss.SetColorProfile(termenv.ColorProfile())
	} else {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	return &Animator{out: out}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Snapshot implements simexec.Snapshotter: it renders one frame showing
// every node's last value, publish/invalid/lost counters, and watchdog
// state.
func (a *Animator) Snapshot(tick int, nodes []*simnode.Node) {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("tick %d", tick)))
	b.WriteByte('\n')

	for _, n := range nodes {
		fv := n.Snapshot(tick)
		rowStyle := lipgloss.NewStyle()
		switch {
		case fv[5] > 0:
			rowStyle = rowStyle.Foreground(watchdogColor)
		case fv[7] > 0 || fv[8] > 0:
			rowStyle = rowStyle.Foreground(invalidColor)
		default:
			rowStyle = rowStyle.Foreground(nominalColor)
		}

		line := fmt.Sprintf("%s last_pub=%-6s last_recv=%-6s pub=%-4s invalid=%-4s lost=%-4s watchdog=%s",
			nameStyle.Render(n.Name),
			strconv.Itoa(fv[2]), strconv.Itoa(fv[4]), strconv.Itoa(fv[6]),
			strconv.Itoa(fv[7]), strconv.Itoa(fv[8]), strconv.Itoa(fv[5]))
		b.WriteString(rowStyle.Render(line))
		b.WriteByte('\n')
	}

	b.WriteString(dimStyle.Render(strings.Repeat("-", 40)))
	b.WriteByte('\n')

	fmt.Fprint(a.out, b.String())
}
