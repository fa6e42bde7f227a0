// Package main is the entry point of the back-office operations CLI.
package main

import (
	"os"

	"github.com/SscSPs/cashdesk_backoffice/cmd/ledgerctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
