package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ogstub/internal/config"
	"ogstub/internal/log"
)

var (
	configFile string
	debug      bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultFile, "path to the site configuration")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:               "ogstub",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "ogstub writes static social preview pages for blog posts",
	Long: `ogstub writes one static HTML page per blog post carrying the Open Graph and
Twitter card metadata that link-preview crawlers read, and hands human
visitors over to the client-side application.

Run without a command to generate every page.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.SetDebug(true)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		_, err = generate(afero.NewOsFs(), cfg, log.S())
		return err
	},
}
