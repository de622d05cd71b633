package term

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var lvl = LevelInfo

func SetLevel(level Level) {
	lvl = level
}

func Debug(a ...interface{}) {
	if lvl > LevelDebug {
		return
	}
	pterm.FgLightCyan.Println(a...)
}

func Debugf(format string, a ...interface{}) {
	if lvl > LevelDebug {
		return
	}
	pterm.FgLightCyan.Printfln(format, a...)
}

func Info(a ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	pterm.FgLightGreen.Println(a...)
}

func Infof(format string, a ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	pterm.FgLightGreen.Printfln(format, a...)
}

func Warn(a ...interface{}) {
	if lvl > LevelWarn {
		return
	}
	pterm.FgYellow.Println(a...)
}

func Warnf(format string, a ...interface{}) {
	if lvl > LevelWarn {
		return
	}
	pterm.FgYellow.Printfln(format, a...)
}

func Error(a ...interface{}) {
	pterm.FgLightRed.Println(a...)
}

func Errorf(format string, a ...interface{}) {
	pterm.FgLightRed.Printfln(format, a...)
}

func Success(a ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	pterm.Success.Println(a...)
}

func Successf(format string, a ...interface{}) {
	if lvl > LevelInfo {
		return
	}
	pterm.Success.Printfln(format, a...)
}

// Logger sends the debug output of the mail packages to the console.
// Lines starting with "warning:" are displayed at warning level.
type Logger struct {
	prefix string
}

func NewLogger(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

func (l *Logger) Print(a ...interface{}) {
	l.Printf("%s", fmt.Sprint(a...))
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l.prefix != "" {
		format = l.prefix + ": " + format
	}
	if strings.Contains(format, "warning: ") {
		Warnf(format, a...)
		return
	}
	Debugf(format, a...)
}
