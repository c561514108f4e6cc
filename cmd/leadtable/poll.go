package main

import (
	"github.com/goliatone/go-leadtable/core"
	"github.com/spf13/cobra"
)

func newPollCommand(a *app) *cobra.Command {
	var (
		campaignID  string
		topic       string
		leadDetails bool
	)
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Fetch and enrich recent webhook events for a campaign",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := core.ParseTopic(topic)
			if err != nil {
				return err
			}
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				events, err := rt.service.Poll(cmd.Context(), core.PollRequest{
					CampaignID:         campaignID,
					Topic:              parsed,
					IncludeLeadDetails: leadDetails,
				})
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), events)
			})
		},
	}
	cmd.Flags().StringVar(&campaignID, "campaign-id", "", "campaign to poll")
	cmd.Flags().StringVar(&topic, "topic", string(core.TopicNewLead), "webhook topic")
	cmd.Flags().BoolVar(&leadDetails, "include-lead-details", false, "enrich events with the full lead")
	_ = cmd.MarkFlagRequired("campaign-id")
	return cmd
}
