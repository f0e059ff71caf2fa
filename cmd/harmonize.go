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
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	harmonizeText       textFlags
	harmonizeDirectives string
	harmonizeOutput     string
)

var harmonizeCmd = &cobra.Command{
	Use:   "harmonize",
	Short: "Rewrite text in one consistent style",
	Long: `Rewrite text in one consistent style. Every non-blank input line is
harmonized as its own segment and the result keeps one segment per line.

Without a configured backend the rule-based rewrite is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := harmonizeText.read(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Orchestrator.HarmonizeText(cmd.Context(), text, harmonizeDirectives)
		if err != nil {
			return err
		}
		logger.Debug("harmonized", zap.String("path", res.Source))
		return writeOutput(cmd, harmonizeOutput, res.Text)
	},
}

func init() {
	rootCmd.AddCommand(harmonizeCmd)
	harmonizeText.register(harmonizeCmd)
	harmonizeCmd.Flags().StringVarP(&harmonizeDirectives, "directives", "d", "", "Style directives for the generative backend")
	harmonizeCmd.Flags().StringVarP(&harmonizeOutput, "output", "o", "", "Output file (default stdout)")
}
