package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yashsmehta/auto-apply/config"
	"github.com/yashsmehta/auto-apply/internal/worker"
	"github.com/yashsmehta/auto-apply/models"
)

func batchCMD() *cobra.Command {
	var csvPath string
	var workers int
	var noCache bool
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process a CSV of applications through a worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if csvPath == "" {
				return fmt.Errorf("--csv is required")
			}
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Pipeline.Workers
			}
			apps, err := worker.ReadCSV(csvPath)
			if err != nil {
				return err
			}
			if len(apps) == 0 {
				return fmt.Errorf("no valid applications in %s", csvPath)
			}
			stk, err := buildStack(cfg, noCache)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			pool := worker.NewPool(stk.processor, stk.archive, workers, nil)
			outcomes := pool.Process(ctx, apps)

			for _, out := range outcomes {
				if out.Report.Status == models.StatusSuccess {
					fmt.Printf("ok   %s: %d answers -> %s\n", out.Application.Name, out.Report.TotalAnswers, out.SavedTo)
				} else {
					fmt.Printf("fail %s: %s\n", out.Application.Name, out.Report.Error)
				}
			}
			printStats(stk.extract.Stats())

			successful, failed := worker.Summarize(outcomes)
			fmt.Printf("Successful: %d / Failed: %d\n", successful, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d applications failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with app_name,info_url,application_url[,context] rows")
	cmd.Flags().IntVar(&workers, "workers", worker.DefaultWorkers, "number of concurrent workers")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass response caching for this batch")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
