package main

import (
	"github.com/spf13/cobra"

	"github.com/yashsmehta/auto-apply/config"
	srv "github.com/yashsmehta/auto-apply/internal/server"
)

func serveCMD() *cobra.Command {
	var addr string
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Address = addr
			}
			return srv.Run(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
