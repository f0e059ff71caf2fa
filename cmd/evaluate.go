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
)

var (
	evaluateReference  string
	evaluateHypothesis string
	evaluateJSON       bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a translation against a reference",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		score, err := a.Orchestrator.Evaluate(cmd.Context(), evaluateReference, evaluateHypothesis)
		if err != nil {
			return err
		}
		if evaluateJSON {
			return printJSON(cmd, score)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "lexical (BLEU): %.4f\nsemantic:       %.4f\n", score.Lexical, score.Semantic)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(&evaluateReference, "reference", "r", "", "Reference text")
	evaluateCmd.Flags().StringVar(&evaluateHypothesis, "hypothesis", "", "Candidate translation")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "Print the scores as JSON")

	evaluateCmd.MarkFlagRequired("reference")
	evaluateCmd.MarkFlagRequired("hypothesis")
}
