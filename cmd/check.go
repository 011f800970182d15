package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"analyzer/internal/analyzer"
	"analyzer/internal/config"
	"analyzer/pkg/logger"
)

// checkCommand constructs the 'check' subcommand that analyzes a local
// workbook and prints the result as JSON. It needs no database and is handy
// for validating exports before uploading them.
func checkCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Analyzes a local Excel workbook and prints the result",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				logger.Fatal(ctx, "could not read workbook", zap.Error(err))
			}

			svc := analyzer.New(nil, analyzer.NewOptions(cfg))
			result, err := svc.Analyze(ctx, filepath.Base(path), data)
			if err != nil {
				logger.Fatal(ctx, "could not analyze workbook", zap.Error(err))
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				logger.Fatal(ctx, "could not encode result", zap.Error(err))
			}

			fmt.Println(string(out)) //nolint: forbidigo
		},
	}

	return cmd
}
