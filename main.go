// Package main is the entry point for the darwin CLI.
package main

import "gooze.dev/pkg/darwin/cmd"

func main() {
	cmd.Execute()
}
