/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/editeur/internal/orchestrator"
)

var (
	translateText       textFlags
	translateOutput     string
	translateSource     string
	translateTarget     string
	translateDirectives string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text with the configured backend",
	Long: `Translate text into the target language (BCP 47 tag, e.g. en, pt-BR).

Translation has no rule-based fallback: without a working backend the
command fails.`,
	Example: `  editeur translate --text "Bonjour le monde" -t en
  editeur translate -i notice.md -o notice.de.md -s fr -t de`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := translateText.read(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Orchestrator.Translate(cmd.Context(), orchestrator.Request{
			Text:       text,
			TargetLang: translateTarget,
			SourceLang: translateSource,
			Directives: translateDirectives,
		})
		if err != nil {
			return err
		}

		logger.Info("translated",
			zap.String("source", res.SourceLang),
			zap.String("target", translateTarget),
			zap.String("provider", res.Provider),
			zap.String("model", res.Model))

		if translateOutput != "" {
			if err := writeOutput(cmd, translateOutput, res.Text); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Translation saved to: %s\n", translateOutput)
			return nil
		}
		return writeOutput(cmd, "", res.Text)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateText.register(translateCmd)
	translateCmd.Flags().StringVarP(&translateOutput, "output", "o", "", "Output file (default stdout)")
	translateCmd.Flags().StringVarP(&translateSource, "source", "s", "", "Source language (detected when omitted and translate.detect_source is set)")
	translateCmd.Flags().StringVarP(&translateTarget, "target", "t", "", "Target language")
	translateCmd.Flags().StringVarP(&translateDirectives, "directives", "d", "", "Translation directives (default translate.directives)")

	translateCmd.MarkFlagRequired("target")
}
