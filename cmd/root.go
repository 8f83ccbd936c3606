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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/pivotran/internal/config"
)

var version = "0.1.0"

var (
	configFile string
	v          *viper.Viper
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pivotran",
	Short: "Translation proxy for Helsinki-NLP opus-mt models",
	Long: `A translation proxy that forwards requests to opus-mt models hosted on
Hugging Face. When no direct model exists for a language pair the text is
translated through English in two hops.

The Hugging Face API token is read from HF_API_TOKEN (or PIVOTRAN_HF_TOKEN).

Use "pivotran serve" to start the HTTP API.`,
	Version:       version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	v = config.New()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (yaml, toml or json)")
	flags.String("registry-url", "", "Model registry base URL")
	flags.String("inference-url", "", "Inference API base URL")
	flags.String("model-owner", "", "Organisation prefix of opus-mt model ids")
	flags.Duration("timeout", 0, "Timeout for each call to the model host")
	flags.Int("cache-size", 0, "Number of language pairs kept in the model existence cache")
	flags.Bool("dev", false, "Human-readable development logging")

	bindFlag(flags.Lookup("registry-url"), "hf.registry_url")
	bindFlag(flags.Lookup("inference-url"), "hf.inference_url")
	bindFlag(flags.Lookup("model-owner"), "hf.model_owner")
	bindFlag(flags.Lookup("timeout"), "hf.timeout")
	bindFlag(flags.Lookup("cache-size"), "cache.size")
	bindFlag(flags.Lookup("dev"), "log.development")
}
