package logger

import (
	"fmt"
	"os"
)

type color string

const (
	GREEN  = color("\033[0;32m")
	RED    = color("\033[1;31m")
	YELLOW = color("\033[1;33m")
	CYAN   = color("\033[1;36m")
	NC     = color("\033[0m")
)

// colorsDisabled follows https://no-color.org
var colorsDisabled = os.Getenv("NO_COLOR") != ""

// Colorize wraps msg with the terminal color codes, used for the access logs
func Colorize(c color, msg any) string {
	if colorsDisabled {
		return fmt.Sprintf("%+v", msg)
	}
	return fmt.Sprintf("%s%+v%s", c, msg, NC)
}

func Green(msg any) string {
	return Colorize(GREEN, msg)
}

func Red(msg any) string {
	return Colorize(RED, msg)
}

func Yellow(msg any) string {
	return Colorize(YELLOW, msg)
}

func Cyan(msg any) string {
	return Colorize(CYAN, msg)
}

// ColorByStatus picks the color for an HTTP status code, 4xx are client errors & hence only a warning
func ColorByStatus(status int, msg any) string {
	switch {
	case status >= 500:
		return Red(msg)
	case status >= 400:
		return Yellow(msg)
	default:
		return Green(msg)
	}
}
