package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).Add(color.Bold).SprintFunc()
	red    = color.New(color.FgRed).Add(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func success(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, green("✓"), fmt.Sprintf(format, args...))
}

func notice(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, cyan(fmt.Sprintf(format, args...)))
}

func warn(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, yellow("warning:"), fmt.Sprintf(format, args...))
}

func failure(err error) {
	fmt.Fprintln(os.Stderr, red("error:"), err)
}
