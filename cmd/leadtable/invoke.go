package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-leadtable/actions"
	"github.com/spf13/cobra"
)

func newInvokeCommand(a *app) *cobra.Command {
	var (
		params         []string
		itemsJSON      string
		continueOnFail bool
		list           bool
	)
	cmd := &cobra.Command{
		Use:   "invoke <resource> <operation>",
		Short: "Run a LeadTable action",
		Long: `invoke runs one resource/operation pair, e.g. "lead get --param leadId=L1".
--items takes a JSON array of parameter objects to run the operation once per item.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return a.write(cmd.OutOrStdout(), actions.NewInvoker(nil).Operations())
			}
			items, err := invocationItems(params, itemsJSON)
			if err != nil {
				return err
			}
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.requireClient(); err != nil {
					return err
				}
				results, err := rt.invoker.Invoke(cmd.Context(), actions.Invocation{
					Resource:       args[0],
					Operation:      args[1],
					Items:          items,
					ContinueOnFail: continueOnFail,
				})
				if err != nil {
					return err
				}
				return a.write(cmd.OutOrStdout(), results)
			})
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&itemsJSON, "items", "", "JSON array of parameter objects")
	cmd.Flags().BoolVar(&list, "list", false, "list the supported resource.operation pairs")
	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", false, "record item errors instead of aborting")
	return cmd
}

// invocationItems merges --param pairs into every --items entry.
func invocationItems(params []string, itemsJSON string) ([]actions.Parameters, error) {
	shared := actions.Parameters{}
	for _, pair := range params {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		shared[strings.TrimSpace(key)] = value
	}

	var items []actions.Parameters
	if strings.TrimSpace(itemsJSON) != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
			return nil, fmt.Errorf("invalid --items: %w", err)
		}
	}
	if len(items) == 0 {
		return []actions.Parameters{shared}, nil
	}
	for i := range items {
		if items[i] == nil {
			items[i] = actions.Parameters{}
		}
		for key, value := range shared {
			if _, exists := items[i][key]; !exists {
				items[i][key] = value
			}
		}
	}
	return items, nil
}
