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
	segmentText     textFlags
	segmentMarkdown bool
	segmentJSON     bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Split text into sentences",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := segmentText.read(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		segments := a.Orchestrator.Segment(cmd.Context(), text, segmentMarkdown)
		if segmentJSON {
			if segments == nil {
				segments = []string{}
			}
			return printJSON(cmd, map[string][]string{"segments": segments})
		}
		for _, s := range segments {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

var classifyText textFlags

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label text as legal, technical, marketing or general",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := classifyText.read(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), a.Orchestrator.Classify(cmd.Context(), text))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentText.register(segmentCmd)
	segmentCmd.Flags().BoolVar(&segmentMarkdown, "markdown", false, "Treat the input as markdown")
	segmentCmd.Flags().BoolVar(&segmentJSON, "json", false, "Print the segments as JSON")

	rootCmd.AddCommand(classifyCmd)
	classifyText.register(classifyCmd)
}
