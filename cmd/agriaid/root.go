package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agriaid",
		Short:         "SMS farming assistant for smallholder farmers",
		Long:          "AgriAid answers farmers' SMS questions about weather, soil, vegetation health, planting seasons and nearby agrovets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newAgrovetCmd())
	return cmd
}
