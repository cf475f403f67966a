package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"banditd/pkg/client"
)

const (
	envServerURL     = "BANDITD_URL"
	defaultServerURL = "http://127.0.0.1:8080"
)

func addServerFlag(cmd *cobra.Command) {
	def := os.Getenv(envServerURL)
	if def == "" {
		def = defaultServerURL
	}
	cmd.PersistentFlags().String("server", def, "banditd base URL")
}

func apiClient(cmd *cobra.Command) (*client.Client, error) {
	server, _ := cmd.Flags().GetString("server")
	return client.New(client.Options{BaseURL: server})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseFloatArg(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}

func newBanditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bandit",
		Short: "Manage bandits on a running server",
	}
	addServerFlag(cmd)

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a bandit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			var cfg client.BanditConfig
			cfg.Strategy, _ = cmd.Flags().GetString("strategy")
			cfg.Param, _ = cmd.Flags().GetFloat64("param")
			cfg.NumArms, _ = cmd.Flags().GetInt("arms")
			cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			cfg.NormalizeWindow, _ = cmd.Flags().GetInt("normalize-window")
			id, err := c.CreateBandit(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	create.Flags().String("strategy", "epsilon_greedy", "selection strategy")
	create.Flags().Float64("param", 0.1, "strategy parameter (epsilon or exploration constant)")
	create.Flags().Int("arms", 2, "number of arms")
	create.Flags().Int64("seed", 0, "random seed, 0 seeds from the clock")
	create.Flags().Int("normalize-window", 0, "reward normalization window, 0 disables")

	list := &cobra.Command{
		Use:   "list",
		Short: "List bandit ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			ids, err := c.ListBandits(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	sel := &cobra.Command{
		Use:   "select <id>",
		Short: "Select an arm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			arm, err := c.SelectArm(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), arm)
			return err
		},
	}

	update := &cobra.Command{
		Use:   "update <id> <arm> <reward>",
		Short: "Record a reward for an arm",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			arm, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid arm %q: %w", args[1], err)
			}
			reward, err := parseFloatArg("reward", args[2])
			if err != nil {
				return err
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return c.UpdateReward(cmd.Context(), args[0], arm, reward)
		},
	}

	stats := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show per-arm statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			st, err := c.BanditStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}

	events := &cobra.Command{
		Use:   "events <id>",
		Short: "Show journaled events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			evs, err := c.BanditEvents(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, evs)
		},
	}
	events.Flags().Int("limit", 0, "newest events to show, 0 shows all")

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a bandit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return c.RemoveBandit(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(create, list, sel, update, stats, events, remove)
	return cmd
}

func newOptimizerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimizer",
		Short: "Manage optimizers on a running server",
	}
	addServerFlag(cmd)

	create := &cobra.Command{
		Use:   "create <x0>",
		Short: "Create an optimizer starting at x0",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			x0, err := parseFloatArg("x0", args[0])
			if err != nil {
				return err
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			cfg := client.OptimizerConfig{X0: x0}
			cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			cfg.InitialStep, _ = cmd.Flags().GetFloat64("step")
			id, err := c.CreateOptimizer(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	create.Flags().Int64("seed", 0, "random seed, 0 seeds from the clock")
	create.Flags().Float64("step", 0, "initial step, 0 uses the server default")

	list := &cobra.Command{
		Use:   "list",
		Short: "List optimizer ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			ids, err := c.ListOptimizers(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest <id>",
		Short: "Get the next point to evaluate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			x, err := c.Suggest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(x, 'g', -1, 64))
			return err
		},
	}

	obs := &cobra.Command{
		Use:   "observe <id> <reward>",
		Short: "Report the reward for the pending suggestion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reward, err := parseFloatArg("reward", args[1])
			if err != nil {
				return err
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return c.Observe(cmd.Context(), args[0], reward)
		},
	}

	state := &cobra.Command{
		Use:   "state <id>",
		Short: "Show optimizer state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			st, err := c.OptimizerState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}

	history := &cobra.Command{
		Use:   "history <id>",
		Short: "Show all observations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			obs, err := c.OptimizerHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, obs)
		},
	}

	events := &cobra.Command{
		Use:   "events <id>",
		Short: "Show journaled events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			evs, err := c.OptimizerEvents(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, evs)
		},
	}
	events.Flags().Int("limit", 0, "newest events to show, 0 shows all")

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an optimizer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return c.RemoveOptimizer(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(create, list, suggest, obs, state, history, events, remove)
	return cmd
}
