package color

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	Red       termenv.Color = termenv.ANSIRed
	Green     termenv.Color = termenv.ANSIGreen
	Yellow    termenv.Color = termenv.ANSIYellow
	Blue      termenv.Color = termenv.ANSIBlue
	Cyan      termenv.Color = termenv.ANSICyan
	Gray      termenv.Color = termenv.ANSIBrightBlack
	BrightRed termenv.Color = termenv.ANSIBrightRed
)

var colorEnabled = true

func init() {
	if termenv.EnvNoColor() || !isTerminal() {
		colorEnabled = false
	}
}

func isTerminal() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func EnableColor(enable bool) {
	colorEnabled = enable
}

func IsColorEnabled() bool {
	return colorEnabled
}

func Colorize(color termenv.Color, text string) string {
	if !colorEnabled {
		return text
	}
	return termenv.String(text).Foreground(color).String()
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func BlueText(text string) string {
	return Colorize(Blue, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	if !colorEnabled {
		return text
	}
	return termenv.String(text).Bold().String()
}

func Error(message string) string {
	if !colorEnabled {
		return "Error: " + message
	}
	return BrightRedText("Error: ") + message
}

