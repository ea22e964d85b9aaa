// Package main provides the updater CLI.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/born-ml/updater/cmd/updater/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		cmd.Report(log.StandardLogger(), err)
		os.Exit(1)
	}
}
