package main

import (
	"os"

	"ogstub/internal/log"
)

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		log.S().Error(err)
		log.Sync()
		os.Exit(1)
	}
}
