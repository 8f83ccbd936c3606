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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/pivotran/internal"
)

var (
	inputFile  string
	outputFile string
	sourceLang string
	targetLang string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text once without starting the server",
	Long: `Translate text through the same routing used by the HTTP API.

The text is taken from the arguments, from --input, or from stdin when
neither is given. The result goes to stdout unless --output is set.

Examples:
  pivotran translate -s en -t es "Take one tablet twice a day"
  pivotran translate -s fr -t de -i note.txt -o note.de.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		r, _, err := buildRouter(cfg, logger)
		if err != nil {
			return err
		}

		result := r.Translate(cmd.Context(), internal.TranslationRequest{
			ID:         uuid.New().String(),
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Timestamp:  time.Now(),
		})
		if !result.OK() {
			return fmt.Errorf("translation failed: %s", result.Error)
		}

		if outputFile == "" {
			fmt.Fprintln(cmd.OutOrStdout(), result.TranslatedText)
			return nil
		}

		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputFile, []byte(result.TranslatedText), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Successfully translated %s to %s\n", sourceLang, targetLang)
		return nil
	},
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) > 0 && inputFile != "":
		return "", fmt.Errorf("give the text either as arguments or with --input, not both")
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for translation")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "en", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "es", "Target language code")
}
