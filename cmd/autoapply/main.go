package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Local runs keep API keys in .env; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "autoapply",
		Short:        "Scrape application pages, extract questions and draft answers",
		SilenceUsage: true,
	}
	root.AddCommand(processCMD(), batchCMD(), serveCMD(), migrateCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
