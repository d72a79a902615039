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

func analyzeCMD() *cobra.Command {
	var cfgPath string
	var maxPages int
	var keep bool
	var analyze = &cobra.Command{
		Use:   "analyze <file.pdf>",
		Short: "Ingest one PDF and print its extracted metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[ANALYZE] ", log.LstdFlags)

			h, err := ingest.NewDocumentHandler(cfg.Storage.AnalysisDir, "", cfg.Extract.MaxTextBytes, logger)
			if err != nil {
				return err
			}
			if !keep {
				defer func() {
					if _, err := h.CleanupSession(); err != nil {
						logger.Printf("cleanup failed: %v", err)
					}
				}()
			}

			path, err := h.Save(ingest.NewFileUpload(args[0]), cfg.Upload.MaxSizeMB)
			if err != nil {
				return err
			}
			text, err := h.Read(path, maxPages)
			if err != nil {
				return err
			}

			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			meta, err := llm.AnalyzeDocument(cmd.Context(), text)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(meta, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	analyze.Flags().IntVar(&maxPages, "max-pages", 0, "limit extraction to the first N pages (0 = all)")
	analyze.Flags().BoolVar(&keep, "keep", false, "keep the session directory after analysis")
	analyze.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return analyze
}
