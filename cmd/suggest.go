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
	suggestText       textFlags
	suggestDirectives string
	suggestOutput     string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Propose an improved version of a text",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := suggestText.read(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Orchestrator.Suggest(cmd.Context(), text, suggestDirectives)
		if err != nil {
			return err
		}
		logger.Debug("suggested", zap.String("path", res.Source))
		return writeOutput(cmd, suggestOutput, res.Text)
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestText.register(suggestCmd)
	suggestCmd.Flags().StringVarP(&suggestDirectives, "directives", "d", "", "Style directives for the generative backend")
	suggestCmd.Flags().StringVarP(&suggestOutput, "output", "o", "", "Output file (default stdout)")
}
