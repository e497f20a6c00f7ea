package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/rtckit/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage named contexts holding credentials and endpoint settings.

Examples:
  rtckit config add-context dev --api-key sk-xxx
  rtckit config list-contexts
  rtckit config use-context dev
  rtckit config current-context
  rtckit config show dev`,
}

var (
	addContextAPIKey       string
	addContextOrganization string
	addContextProject      string
	addContextBaseURL      string
	addContextWSURL        string
	addContextModel        string
	addContextVoice        string
)

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create or update a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]

		ctx := &cli.Context{
			APIKey:       addContextAPIKey,
			Organization: addContextOrganization,
			Project:      addContextProject,
			BaseURL:      addContextBaseURL,
			WebSocketURL: addContextWSURL,
			Model:        addContextModel,
			Voice:        addContextVoice,
		}
		if existing, err := cfg.GetContext(name); err == nil {
			// Preserve unset fields on update.
			if ctx.APIKey == "" {
				ctx.APIKey = existing.APIKey
			}
			if ctx.Organization == "" {
				ctx.Organization = existing.Organization
			}
			if ctx.Project == "" {
				ctx.Project = existing.Project
			}
			if ctx.BaseURL == "" {
				ctx.BaseURL = existing.BaseURL
			}
			if ctx.WebSocketURL == "" {
				ctx.WebSocketURL = existing.WebSocketURL
			}
			if ctx.Model == "" {
				ctx.Model = existing.Model
			}
			if ctx.Voice == "" {
				ctx.Voice = existing.Voice
			}
			ctx.Extra = existing.Extra
		}

		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q saved.", name)
		return nil
	},
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()

		if len(names) == 0 {
			fmt.Println("No contexts configured.")
			fmt.Println("Create one with: rtckit config add-context <name> --api-key sk-xxx")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tMODEL\tAPI KEY")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			ctx := cfg.Contexts[name]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name, ctx.Model, cli.MaskAPIKey(ctx.APIKey))
		}
		return w.Flush()
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted.", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q.", args[0])
		return nil
	},
}

var configCurrentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Display the current context name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Println("No current context set.")
			return nil
		}
		fmt.Println(cfg.CurrentContext)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a context (current context if no name given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		ctx, err := cfg.ResolveContext(name)
		if err != nil {
			return err
		}

		// Never print the raw key.
		masked := *ctx
		masked.APIKey = cli.MaskAPIKey(ctx.APIKey)
		return cli.Output(&masked, cli.OutputOptions{Format: cli.FormatYAML})
	},
}

func init() {
	configAddContextCmd.Flags().StringVar(&addContextAPIKey, "api-key", "", "API key for the context")
	configAddContextCmd.Flags().StringVar(&addContextOrganization, "organization", "", "organization ID")
	configAddContextCmd.Flags().StringVar(&addContextProject, "project", "", "project ID")
	configAddContextCmd.Flags().StringVar(&addContextBaseURL, "base-url", "", "negotiation endpoint URL")
	configAddContextCmd.Flags().StringVar(&addContextWSURL, "websocket-url", "", "WebSocket endpoint URL")
	configAddContextCmd.Flags().StringVar(&addContextModel, "model", "", "default model")
	configAddContextCmd.Flags().StringVar(&addContextVoice, "voice", "", "default voice")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configCurrentContextCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(configCmd)
}
