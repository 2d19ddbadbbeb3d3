// Package main is the clinicpulse command-line entry point.
package main

import "github.com/clinicpulse/clinicpulse/internal/cli"

func main() {
	cli.Execute()
}
