// Command setup-memory records trade outcomes per chart setup and warns when an
// AI chart analysis lands on a setup with a poor track record.
package main

import (
	"os"

	"github.com/fatih/color"

	"setup-memory/internal/cli"
)

func main() {
	app := cli.NewApp()
	rootCmd := cli.NewRootCmd(app)

	err := rootCmd.Execute()
	if closeErr := app.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
