// The main package for the titledb executable.
package main

import (
	"github.com/JakeFAU/ctr-titledb/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
