// Command api serves the automation builder: node templates, editor sessions,
// saved automations and inbox conversation history.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
