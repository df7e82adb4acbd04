// Command studybuddy runs the Smart Study Buddy assistant: the web server,
// the classifier trainer and a local chat console.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
