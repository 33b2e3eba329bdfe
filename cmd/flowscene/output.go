package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	labelColor   = color.New(color.FgCyan)
)

func errorf(format string, a ...any) {
	errorColor.Fprint(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

func warnf(format string, a ...any) {
	warnColor.Fprint(os.Stderr, "warning: ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}

func successf(format string, a ...any) {
	successColor.Fprintf(os.Stdout, format+"\n", a...)
}
