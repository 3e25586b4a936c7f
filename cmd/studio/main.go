package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Cipher SQL Studio backend",
	Long: `Cipher SQL Studio is an SQL tutoring platform. Students run
arbitrary SELECT queries against per-assignment sandboxes, each
isolated in its own Postgres schema.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
