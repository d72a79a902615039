package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/docportal/config"
	"github.com/mohammad-safakhou/docportal/internal/docstore"
)

func pruneCMD() *cobra.Command {
	var cfgPath string
	var keepLatest int
	var prune = &cobra.Command{
		Use:   "prune",
		Short: "Remove old session directories, keeping the most recent ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(os.Stderr, "[PRUNE] ", log.LstdFlags)
			if keepLatest == 0 {
				keepLatest = cfg.Retention.KeepLatest
			}

			total := 0
			for _, dir := range []string{cfg.Storage.AnalysisDir, cfg.Storage.CompareDir} {
				removed, err := docstore.Prune(dir, keepLatest, logger)
				if err != nil {
					return err
				}
				total += removed
			}
			fmt.Printf("removed %d session(s)\n", total)
			return nil
		},
	}
	prune.Flags().IntVar(&keepLatest, "keep-latest", 0, "sessions to keep per storage dir (default from config)")
	prune.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return prune
}
