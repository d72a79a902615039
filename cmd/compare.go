package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/internal/ingest"
	"github.com/mohammad-safakhou/docportal/provider"
)

func compareCMD() *cobra.Command {
	var cfgPath string
	var keep bool
	var compare = &cobra.Command{
		Use:   "compare <reference.pdf> <actual.pdf>",
		Short: "Compare two PDF versions and print page-level changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[COMPARE] ", log.LstdFlags)

			ci, err := ingest.NewCompareIngestor(cfg.Storage.CompareDir, "", logger)
			if err != nil {
				return err
			}
			if !keep {
				defer func() {
					if _, err := ci.CleanupSession(); err != nil {
						logger.Printf("cleanup failed: %v", err)
					}
				}()
			}

			if _, _, err := ci.SavePair(
				ingest.NewFileUpload(args[0]),
				ingest.NewFileUpload(args[1]),
				cfg.Upload.MaxSizeMB,
			); err != nil {
				return err
			}

			combined, err := ci.Combine()
			if err != nil {
				return err
			}

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			changes, err := llm.CompareDocuments(cmd.Context(), combined)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(changes, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	compare.Flags().BoolVar(&keep, "keep", false, "keep the session directory after comparison")
	compare.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return compare
}
