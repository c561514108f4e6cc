package main

import (
	"strings"

	"github.com/goliatone/go-leadtable/core"
	"github.com/spf13/cobra"
)

func newOptionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "List dropdown options",
	}

	customers := &cobra.Command{
		Use:   "customers",
		Short: "List the account's customers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				options, err := rt.service.CustomerOptions(cmd.Context())
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), options)
			})
		},
	}

	var customerID string
	campaigns := &cobra.Command{
		Use:   "campaigns",
		Short: "List a customer's campaigns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				options, err := rt.service.CampaignOptions(cmd.Context(), func(name string) (string, bool) {
					if name == core.CampaignDependencies[0] && strings.TrimSpace(customerID) != "" {
						return customerID, true
					}
					return "", false
				})
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), options)
			})
		},
	}
	campaigns.Flags().StringVar(&customerID, "customer-id", "", "customer whose campaigns to list")

	var (
		layer     string
		operation string
	)
	topics := &cobra.Command{
		Use:   "topics",
		Short: "List the webhook topics offered for a layer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := core.ParseLayer(layer)
			if err != nil {
				return err
			}
			return a.write(cmd.OutOrStdout(), core.WebhookTopicOptions(parsed, operation))
		},
	}
	topics.Flags().StringVar(&layer, "layer", string(core.LayerAgency), "subscription layer: agency, customer, table")
	topics.Flags().StringVar(&operation, "operation", "", "webhook operation the dropdown belongs to")

	cmd.AddCommand(customers, campaigns, topics)
	return cmd
}
