package main

import (
	"os"

	"github.com/relsign/relsign/internal/cli"
	"github.com/relsign/relsign/internal/models"
	"github.com/sirupsen/logrus"
)

func main() {
	// Setup logging format
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		// Distinct exit code per failing stage so callers can branch
		// on the failure class.
		os.Exit(models.ExitCode(err))
	}
}
