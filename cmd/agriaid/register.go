package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agriaid/agriaid/config"
	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/registry"
)

func newRegisterCmd() *cobra.Command {
	var reg core.Registration

	cmd := &cobra.Command{
		Use:   "register <phone>",
		Short: "Register a farmer's location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			reg.FarmerID = core.NormalizePhone(args[0])
			reg.RegisteredAt = time.Now()
			if err := store.RegisterFarmer(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Printf("registered %s (%s, %s)\n", reg.FarmerID, reg.Ward, reg.County)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.Ward, "ward", "", "ward name")
	cmd.Flags().StringVar(&reg.County, "county", "", "county name")
	cmd.Flags().Float64Var(&reg.Lat, "lat", 0, "farm latitude")
	cmd.Flags().Float64Var(&reg.Lon, "lon", 0, "farm longitude")
	_ = cmd.MarkFlagRequired("county")
	return cmd
}

func newAgrovetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agrovet",
		Short: "Manage the agrovet directory",
	}

	var entry registry.Agrovet
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an agrovet to the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := registry.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entry.Name = args[0]
			entry.Contact = core.NormalizePhone(entry.Contact)
			id, err := store.AddAgrovet(cmd.Context(), entry)
			if err != nil {
				return err
			}
			fmt.Printf("added agrovet #%d: %s (%s, %s)\n", id, entry.Name, entry.Ward, entry.County)
			return nil
		},
	}
	add.Flags().StringVar(&entry.Ward, "ward", "", "ward name")
	add.Flags().StringVar(&entry.County, "county", "", "county name")
	add.Flags().StringVar(&entry.Contact, "contact", "", "phone contact")
	add.Flags().StringVar(&entry.Services, "services", "", "offered services, comma separated")
	add.Flags().Float64Var(&entry.Rating, "rating", 0, "directory rating 0-5")
	_ = add.MarkFlagRequired("county")

	cmd.AddCommand(add)
	return cmd
}
