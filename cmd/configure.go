package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"ollamacli/utils/display"
	"ollamacli/utils/models"
	"ollamacli/utils/processor"
	"ollamacli/utils/terminal"
)

const greenCheckmark = "✅"

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set up the model server and preferences",
	Long: `Walk through the configuration interactively: server URL, model,
terminal launcher, Python command, web access, and theme.

The result is written to ~/.ollamacli/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm := processor.NewReaderConfirmer(os.Stdin, os.Stdout)

		if url, ok := terminal.Ask("Ollama server URL", appConfig.OllamaURL); ok {
			appConfig.OllamaURL = url
		}
		if url, ok := terminal.Ask("OpenAI-compatible URL (optional)", appConfig.OpenAICompatURL); ok {
			appConfig.OpenAICompatURL = url
		}

		provider := models.DetectProvider(cmd.Context(), appConfig)
		if names, err := provider.ListModels(cmd.Context()); err != nil {
			log.Printf("Warning: could not list models from %s: %v. Keeping model %q.\n",
				appConfig.OllamaURL, err, appConfig.Model)
		} else if len(names) > 0 {
			if choice, ok := terminal.Select("Select a default model", names); ok {
				appConfig.Model = choice
			}
		}

		if launcher, ok := terminal.Ask("Terminal launcher command", appConfig.TerminalLauncher); ok {
			appConfig.TerminalLauncher = launcher
		}
		if python, ok := terminal.Ask("Python command", appConfig.PythonCommand); ok {
			appConfig.PythonCommand = python
		}
		appConfig.WebEnabled = confirm.Confirm("Enable web access for /web searches?")
		if theme, ok := terminal.Select("Select a theme", display.ThemeNames()); ok {
			appConfig.Theme = theme
		}

		if err := appConfig.Save(); err != nil {
			return err
		}
		log.Printf("\n%s Configuration saved to ~/.ollamacli/config.yaml\n", greenCheckmark)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
