package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ogstub/internal/config"
	"ogstub/internal/inspect"
	"ogstub/internal/log"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit the generated preview pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		findings, err := inspect.Audit(afero.NewOsFs(), cfg.OutputDir)
		if err != nil {
			return err
		}

		for _, f := range findings {
			log.S().Warn(f)
		}
		if len(findings) > 0 {
			return fmt.Errorf("%d problem(s) found in %s", len(findings), cfg.OutputDir)
		}

		log.S().Infof("All preview pages in %s look good", cfg.OutputDir)
		return nil
	},
}
