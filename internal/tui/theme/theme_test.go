package theme

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestStylesHaveForegrounds(t *testing.T) {
	t.Parallel()

	for i, style := range []lipgloss.Style{
		HeaderStyle,
		SuccessStyle,
		ErrorStyle,
		WarningStyle,
		InfoStyle,
		MutedStyle,
	} {
		if style.GetForeground() == nil {
			t.Fatalf("style %d has nil foreground", i)
		}
	}

	if border, _, _, _, _ := ReportBorder.GetBorder(); border.Top != lipgloss.RoundedBorder().Top {
		t.Fatalf("report border top = %q, want rounded", border.Top)
	}
}

func TestProfileColorRespectsProfile(t *testing.T) {
	original := colorProfileFn
	t.Cleanup(func() {
		colorProfileFn = original
	})

	colorProfileFn = func() termenv.Profile { return termenv.TrueColor }
	if got := profileColor(Amber, "214", "11"); got != (lipgloss.AdaptiveColor{Light: Amber, Dark: Amber}) {
		t.Fatalf("truecolor result = %#v", got)
	}

	colorProfileFn = func() termenv.Profile { return termenv.ANSI256 }
	complete, ok := profileColor(Amber, "214", "11").(lipgloss.CompleteAdaptiveColor)
	if !ok {
		t.Fatalf("ansi256 result type = %T, want lipgloss.CompleteAdaptiveColor", profileColor(Amber, "214", "11"))
	}
	if complete.Dark.ANSI256 != "214" || complete.Light.ANSI != "11" {
		t.Fatalf("complete adaptive color = %#v", complete)
	}
}

func TestDisableColorRendersPlainText(t *testing.T) {
	original := lipgloss.ColorProfile()
	t.Cleanup(func() {
		lipgloss.SetColorProfile(original)
	})

	DisableColor()
	if got := ErrorStyle.Render("boom"); got != "boom" {
		t.Fatalf("rendered = %q, want plain text", got)
	}
}
