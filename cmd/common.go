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

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/valpere/pivotran/internal/config"
	"github.com/valpere/pivotran/internal/router"
	"github.com/valpere/pivotran/internal/translator"
)

// bindFlag lets an explicitly set flag override env and config file values
// without its zero default shadowing them.
func bindFlag(flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag.Name, err))
	}
}

func newLogger(c *config.Config) (*zap.Logger, error) {
	if c.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildRouter wires the Hugging Face client and the router from config.
func buildRouter(c *config.Config, logger *zap.Logger) (*router.Router, *translator.HuggingFaceService, error) {
	host := translator.NewHuggingFaceService(c.HF)

	r, err := router.New(host, router.Config{CacheSize: c.Cache.Size}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create router: %w", err)
	}
	return r, host, nil
}
