// Package main provides the workbench CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joss/workbench/internal/backend"
	"github.com/joss/workbench/internal/config"
	"github.com/joss/workbench/internal/prefs"
	"github.com/joss/workbench/internal/render"
	"github.com/joss/workbench/internal/tui"
)

var (
	version = "0.1.0"
	pretty  = true
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "workbench [path]",
		Short: "Terminal workspace for an AI coding assistant backend",
		Long: `Workbench: a terminal client for an AI assistant backend.

Usage modes:
  workbench            Open the workspace in the current directory
  workbench <path>     Open the workspace on the given project root
  workbench <command>  Run a specific command (see below)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("workspace mode needs a terminal; see 'workbench help' for commands")
			}

			root, _ := os.Getwd()
			if len(args) > 0 {
				path := args[0]
				if !filepath.IsAbs(path) {
					path = filepath.Join(root, path)
				}
				root = path
			}
			return tui.Run(root)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "Pretty print output")

	rootCmd.AddCommand(
		recentCmd(),
		modelsCmd(),
		statusCmd(),
		openCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient() *backend.Client {
	env := config.Get()
	return backend.New(env.BackendURL, env.QuickTimeout, env.TaskTimeout)
}

func openStore() (*prefs.Store, error) {
	paths := config.GetPaths()
	if err := config.EnsureDir(paths.Home); err != nil {
		return nil, err
	}
	return prefs.Open(paths.DB)
}

func recentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently opened projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			recents, err := store.RecentProjects(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(render.New(pretty).Recents(recents))
			return nil
		},
	}
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [id]",
		Short: "List reasoning models, or select one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			ctx := cmd.Context()

			if len(args) == 1 {
				return selectModel(ctx, client, args[0])
			}

			models, err := client.ListModels(ctx)
			if err != nil {
				return describeErr(err)
			}

			selected := ""
			if store, err := openStore(); err == nil {
				selected = store.SelectedModel(ctx)
				store.Close()
			}
			fmt.Print(render.New(pretty).Models(models, selected))
			return nil
		},
	}
	return cmd
}

func selectModel(ctx context.Context, client *backend.Client, id string) error {
	if err := client.SelectModel(ctx, id); err != nil {
		return describeErr(err)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SetSelectedModel(ctx, id); err != nil {
		return err
	}
	fmt.Printf("model: %s\n", id)
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.Get()
			client := newClient()

			detail := ""
			reachable := true
			if _, err := client.ListModels(cmd.Context()); err != nil {
				reachable = false
				detail = backend.Categorize(err).Hint()
			}
			fmt.Print(render.New(pretty).Status(env.BackendURL, reachable, detail))
			return nil
		},
	}
}

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a project and print its stats without starting the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !filepath.IsAbs(path) {
				cwd, _ := os.Getwd()
				path = filepath.Join(cwd, path)
			}

			info, err := newClient().OpenProject(cmd.Context(), path)
			if err != nil {
				return describeErr(err)
			}

			if store, err := openStore(); err == nil {
				_ = store.TouchRecentProject(cmd.Context(), path)
				store.Close()
			}
			fmt.Print(render.New(pretty).Stats(info.DisplayName, info.Stats))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("workbench %s\n", version)
		},
	}
}

// describeErr appends the recovery hint for classified backend errors.
func describeErr(err error) error {
	if hint := backend.Categorize(err).Hint(); hint != "" {
		return fmt.Errorf("%w (%s)", err, hint)
	}
	return err
}
