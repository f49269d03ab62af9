// Command scenarioctl lists and runs demo scenarios against a running
// scenario executor over gRPC.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-mes-scenarios/internal/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	addr    string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "scenarioctl",
		Short:         "Trigger ERP/MES demo scenarios",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("SCENARIOS_GRPC_URL", "localhost:9090"), "scenario executor gRPC address")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "per-call timeout")

	root.AddCommand(newListCmd(opts), newOptionsCmd(opts), newRunCmd(opts))
	return root
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the scenario catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *client.ScenarioGRPCClient) error {
				list, err := c.ListScenarios(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}
}

func newOptionsCmd(opts *options) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "options [scenario-id param]",
		Short: "List selectable values for a parameter or a source",
		Args: func(cmd *cobra.Command, args []string) error {
			if source == "" && len(args) != 2 {
				return fmt.Errorf("expected <scenario-id> <param> or --source")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var scenarioID, param string
			if len(args) == 2 {
				scenarioID, param = args[0], args[1]
			}
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *client.ScenarioGRPCClient) error {
				list, err := c.ListOptions(ctx, scenarioID, param, source)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "option source (lines, equipment, products, ...)")
	return cmd
}

func newRunCmd(opts *options) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:     "run <scenario-id>",
		Short:   "Execute a scenario",
		Example: "  scenarioctl run QS001 --param line_code=LINE001 --param defect_rate=20",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(pairs)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), opts, func(ctx context.Context, c *client.ScenarioGRPCClient) error {
				env, err := c.Execute(ctx, strings.ToUpper(args[0]), params)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), env); err != nil {
					return err
				}
				if ok, _ := env["success"].(bool); !ok {
					return fmt.Errorf("scenario failed: %v", env["error"])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&pairs, "param", "p", nil, "parameter as key=value; repeat for several")
	return cmd
}

// parseParams turns key=value pairs into request parameters. Numbers and
// booleans are sent typed; a repeated key becomes a list.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}

		v := typedValue(value)
		switch prev := params[key].(type) {
		case nil:
			params[key] = v
		case []any:
			params[key] = append(prev, v)
		default:
			params[key] = []any{prev, v}
		}
	}
	return params, nil
}

func typedValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func withClient(ctx context.Context, opts *options, fn func(context.Context, *client.ScenarioGRPCClient) error) error {
	c, err := client.NewScenarioGRPCClient(opts.addr)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return fn(ctx, c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
