package main

import (
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"ogstub/internal/config"
	"ogstub/internal/log"
	"ogstub/internal/scaffold"
)

func init() {
	newCmd.AddCommand(newSiteCmd)
	newCmd.AddCommand(newPostCmd)
	rootCmd.AddCommand(newCmd)
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new site or post",
}

var newSiteCmd = &cobra.Command{
	Use:   "site <dir>",
	Short: "Create a new site skeleton",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := scaffold.CreateNewSite(afero.NewOsFs(), args[0])
		for _, path := range created {
			log.S().Infof("Created %s", path)
		}
		if err != nil {
			return err
		}
		log.S().Infof("New site created in %s. Edit %s to set baseurl and owner.", args[0], config.DefaultFile)
		return nil
	},
}

var newPostCmd = &cobra.Command{
	Use:   "post <title>",
	Short: "Create a new draft post from the archetype",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentDir := config.DefaultContentDir
		if cfg, err := config.Load(configFile); err == nil {
			contentDir = cfg.ContentDir
		} else {
			log.S().Debugf("Using default content directory: %v", err)
		}

		path, err := scaffold.CreateNewPost(afero.NewOsFs(), ".", contentDir, strings.Join(args, " "))
		if err != nil {
			return err
		}
		log.S().Infof("Created %s", path)
		return nil
	},
}
