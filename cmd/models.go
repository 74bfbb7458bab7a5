package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"ollamacli/utils/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models installed on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := models.DetectProvider(cmd.Context(), appConfig)
		names, err := provider.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing models from %s: %w", appConfig.OllamaURL, err)
		}
		if len(names) == 0 {
			log.Println("No models installed.")
			return nil
		}
		for _, name := range names {
			marker := "  "
			if models.MatchesModel(appConfig.Model, name) {
				marker = "* "
			}
			fmt.Println(marker + name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
