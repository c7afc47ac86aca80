package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yashsmehta/auto-apply/config"
	"github.com/yashsmehta/auto-apply/models"
)

func processCMD() *cobra.Command {
	var app models.Application
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run one application through the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Name == "" || app.InfoURL == "" || app.ApplicationURL == "" {
				return fmt.Errorf("--name, --info-url and --apply-url are required")
			}
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			stk, err := buildStack(cfg, false)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			report := stk.processor.Process(ctx, app, func(ev models.ProgressEvent) {
				fmt.Printf("[%d/%d] %3d%% %s\n", ev.Step, ev.TotalSteps, ev.Percentage, ev.Message)
			})
			printStats(stk.extract.Stats())

			if report.Status != models.StatusSuccess {
				return fmt.Errorf("processing %q failed: %s", app.Name, report.Error)
			}
			dir, err := stk.archive.Save(report)
			if err != nil {
				return fmt.Errorf("saving results: %w", err)
			}
			fmt.Printf("Questions found: %d, answers generated: %d\n", report.TotalQuestions, report.TotalAnswers)
			fmt.Printf("Results saved to %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&app.Name, "name", "", "application name")
	cmd.Flags().StringVar(&app.InfoURL, "info-url", "", "URL of the information page")
	cmd.Flags().StringVar(&app.ApplicationURL, "apply-url", "", "URL of the application form page")
	cmd.Flags().StringVar(&app.Context, "context", "", "extra applicant context for answer generation")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
