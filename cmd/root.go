package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "docportal"}

	root.AddCommand(serveCMD(), analyzeCMD(), compareCMD(), pruneCMD())
	_ = root.Execute()
}
