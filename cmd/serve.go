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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/pivotran/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP translation API",
	Long: `Start the HTTP API.

Endpoints:
  POST /translate   {"text": "...", "src_lang": "en", "tgt_lang": "es"}
  GET  /languages   supported language codes and the pivot language
  GET  /health      liveness probe

POST /translate always answers 200; failures are reported in the "error"
field with an empty "translated_text".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer logger.Sync()

		r, _, err := buildRouter(cfg, logger)
		if err != nil {
			return err
		}

		if !cfg.Log.Development {
			gin.SetMode(gin.ReleaseMode)
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           server.New(r, logger),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server",
				zap.String("addr", srv.Addr),
				zap.String("inference_url", cfg.HF.InferenceURL),
				zap.Bool("token", cfg.HF.Token != ""),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		logger.Info("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Listen address")
	serveCmd.Flags().Int("port", 0, "Listen port")

	bindFlag(serveCmd.Flags().Lookup("host"), "server.host")
	bindFlag(serveCmd.Flags().Lookup("port"), "server.port")
}
