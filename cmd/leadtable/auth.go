package main

import "github.com/spf13/cobra"

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Inspect LeadTable credentials",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the configured credentials against the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				result, err := rt.client.CheckAuth(cmd.Context())
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), result)
			})
		},
	})
	return cmd
}
