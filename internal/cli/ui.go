package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/annograph/pkg/errors"
	"github.com/matzehuels/annograph/pkg/registry"
	"github.com/matzehuels/annograph/pkg/resource"
)

// stdout receives all human-readable output. Tests replace it.
var stdout io.Writer = os.Stdout

var (
	colorTeal  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// Styles shared by the commands.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorTeal)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorTeal)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorAmber)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorTeal)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

func emit(s string) {
	fmt.Fprintln(stdout, s)
}

func printSuccess(format string, args ...any) {
	emit(StyleSuccess.Render("✓") + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	emit(StyleError.Render("✗") + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	emit(StyleWarning.Render("!") + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	emit(lipgloss.NewStyle().Foreground(colorGray).Render("›") + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	emit("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a file the command wrote.
func printFile(path string) {
	emit("  " + StyleDim.Render("→") + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	emit(styleKey.Render(key) + " " + StyleValue.Render(value))
}

func printNewline() {
	emit("")
}

// printStats prints resource and target counts on one line. Failures are
// highlighted when present.
func printStats(resources, failures, targets int) {
	parts := []string{
		StyleNumber.Render(fmt.Sprint(resources)) + StyleDim.Render(" resources"),
		StyleNumber.Render(fmt.Sprint(targets)) + StyleDim.Render(" targets"),
	}
	if failures > 0 {
		parts = append(parts, StyleWarning.Render(fmt.Sprintf("%d failed", failures)))
	} else {
		parts = append(parts, StyleSuccess.Render("complete"))
	}
	emit("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printSummary lists the media targets, textual bodies and failures of a run.
func printSummary(s *registry.Snapshot) {
	printNewline()
	printKeyValue("Run", StyleHighlight.Render(s.RunID))
	printKeyValue("Root", StyleLink.Render(s.Root))
	printStats(len(s.Resources), len(s.Failures), len(s.MusicTargets)+len(s.AudioTargets))

	printTargets("Music notation", resource.KindMusicNotation, s.MusicTargets)
	printTargets("Audio", resource.KindAudio, s.AudioTargets)

	if len(s.TextualBodies) > 0 {
		printNewline()
		emit(StyleTitle.Render("Textual bodies"))
		for _, b := range s.TextualBodies {
			for _, line := range strings.Split(b.Text(), "\n") {
				printDetail("%s", line)
			}
		}
	}

	if len(s.Failures) > 0 {
		printNewline()
		for _, f := range s.Failures {
			printFailure(f)
		}
	}
}

func printFailure(f registry.Failure) {
	reason := string(f.Code)
	if f.Code == errors.ErrCodeHTTP && f.Status != 0 {
		reason = fmt.Sprintf("HTTP %d", f.Status)
	}
	printWarning("%s (%s)", f.URI, reason)
	if f.Message != "" {
		printDetail("%s", f.Message)
	}
}

func printTargets(title string, kind resource.MediaKind, targets map[string]resource.FragmentSet) {
	if len(targets) == 0 {
		return
	}
	printNewline()
	emit(StyleTitle.Render(title))
	for _, t := range sortedTargets(kind, targets) {
		emit("  " + StyleLink.Render(t.URI))
		if frags := t.Fragments.Sorted(); len(frags) > 0 {
			printDetail("#%s", strings.Join(frags, " #"))
		}
	}
}

func sortedTargets(kind resource.MediaKind, targets map[string]resource.FragmentSet) []*resource.Target {
	res := &resource.Resource{}
	for uri, frags := range targets {
		res.Target(uri, kind).Fragments.Merge(frags)
	}
	return res.TargetsOf(kind)
}
