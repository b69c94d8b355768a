// Package main is the entry point for the ndfkit CLI.
package main

import "ndfkit.dev/pkg/ndfkit/cmd"

func main() {
	cmd.Execute()
}
