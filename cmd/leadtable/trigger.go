package main

import (
	"strings"

	leadtable "github.com/goliatone/go-leadtable"
	"github.com/goliatone/go-leadtable/core"
	"github.com/spf13/cobra"
)

type triggerFlags struct {
	workflowID  string
	webhookName string
	layer       string
	event       string
	customerID  string
	campaignID  string
	callbackURL string
	leadDetails bool
}

func (f *triggerFlags) bind(cmd *cobra.Command, withCallback bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.workflowID, "workflow-id", "", "workflow id owning the subscription")
	flags.StringVar(&f.webhookName, "webhook-name", "", "webhook name within the workflow (default \"default\")")
	_ = cmd.MarkFlagRequired("workflow-id")
	if !withCallback {
		return
	}
	flags.StringVar(&f.layer, "layer", string(core.LayerAgency), "subscription layer: agency, customer, table")
	flags.StringVar(&f.event, "event", string(core.TopicNewLead), "webhook topic")
	flags.StringVar(&f.customerID, "customer-id", "", "customer id (customer layer)")
	flags.StringVar(&f.campaignID, "campaign-id", "", "campaign id (table layer)")
	flags.StringVar(&f.callbackURL, "callback-url", "", "URL LeadTable delivers events to")
	flags.BoolVar(&f.leadDetails, "include-lead-details", false, "enrich deliveries with the full lead")
}

func (f *triggerFlags) trigger(service *leadtable.Service) (*leadtable.Trigger, error) {
	cfg := leadtable.TriggerConfig{
		CustomerID:         f.customerID,
		CampaignID:         f.campaignID,
		IncludeLeadDetails: f.leadDetails,
	}
	if strings.TrimSpace(f.layer) != "" {
		layer, err := core.ParseLayer(f.layer)
		if err != nil {
			return nil, err
		}
		cfg.Layer = layer
	}
	if strings.TrimSpace(f.event) != "" {
		topic, err := core.ParseTopic(f.event)
		if err != nil {
			return nil, err
		}
		cfg.Event = topic
	}
	return leadtable.NewTrigger(service, core.WorkflowRef{WorkflowID: f.workflowID, WebhookName: f.webhookName}, cfg)
}

func newTriggerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Manage workflow webhook subscriptions",
		Long: `trigger runs the activation and deactivation hooks a workflow host calls.
Subscription records persist in the configured store, so use a sqlite3,
postgres or redis store to delete a subscription created by an earlier run.`,
	}

	create := &triggerFlags{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Attach a webhook and record the subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				trigger, err := create.trigger(rt.service)
				if err != nil {
					return err
				}
				record, err := trigger.Create(cmd.Context(), create.callbackURL)
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), record)
			})
		},
	}
	create.bind(createCmd, true)
	_ = createCmd.MarkFlagRequired("callback-url")

	remove := &triggerFlags{}
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook and clear the subscription record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				trigger, err := remove.trigger(rt.service)
				if err != nil {
					return err
				}
				if err := trigger.Delete(cmd.Context(), remove.callbackURL); err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), map[string]any{"deleted": true})
			})
		},
	}
	remove.bind(deleteCmd, true)

	check := &triggerFlags{}
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a subscription record exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				trigger, err := check.trigger(rt.service)
				if err != nil {
					return err
				}
				exists, err := trigger.CheckExists(cmd.Context())
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), map[string]any{"exists": exists})
			})
		},
	}
	check.bind(checkCmd, false)

	cmd.AddCommand(createCmd, deleteCmd, checkCmd)
	return cmd
}
