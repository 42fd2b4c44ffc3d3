// The main package for the scoreline executable.
package main

import (
	"github.com/scoreline/scoreline/cmd"
)

func main() {
	cmd.Execute()
}
