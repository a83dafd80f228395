// The main package for the bugdex executable.
package main

import (
	"github.com/bugdex/bugdex/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
