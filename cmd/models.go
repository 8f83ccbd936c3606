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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/pivotran/internal/language"
	"github.com/valpere/pivotran/internal/router"
	"github.com/valpere/pivotran/internal/translator"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported language codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tPIVOT")
		for _, code := range language.DefaultCodes {
			pivot := ""
			if code == language.Pivot {
				pivot = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", code, language.Name(code), pivot)
		}
		return w.Flush()
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect opus-mt models on the model host",
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check <source> <target>",
	Short: "Check whether a direct model exists for a language pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, host, err := buildRouter(cfg, nil)
		if err != nil {
			return err
		}

		pair, err := parsePair(r, args[0], args[1])
		if err != nil {
			return err
		}

		exists, err := r.HasDirectModel(cmd.Context(), pair)
		if err != nil {
			return fmt.Errorf("model lookup failed: %w", err)
		}

		status := "not found"
		if exists {
			status = "available"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", host.ModelName(pair), status)
		return nil
	},
}

var modelsRouteCmd = &cobra.Command{
	Use:   "route <source> <target>",
	Short: "Show the models a translation between two languages would use",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, host, err := buildRouter(cfg, nil)
		if err != nil {
			return err
		}

		pair, err := parsePair(r, args[0], args[1])
		if err != nil {
			return err
		}

		route, err := r.Route(cmd.Context(), pair.From, pair.To)
		if err != nil {
			return err
		}

		for i, step := range route {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s (%s)\n", i+1, host.ModelName(step), step)
		}
		return nil
	},
}

func parsePair(r *router.Router, source, target string) (translator.Pair, error) {
	pair := translator.Pair{From: language.Normalize(source), To: language.Normalize(target)}
	for _, code := range []string{pair.From, pair.To} {
		if !r.Languages().Contains(code) {
			return pair, fmt.Errorf("unsupported language %q, supported languages: %s", code, r.Languages())
		}
	}
	return pair, nil
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.AddCommand(modelsCheckCmd)
	modelsCmd.AddCommand(modelsRouteCmd)
}
