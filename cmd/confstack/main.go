package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"confstack"
)

var (
	flagApp        string
	flagCwd        string
	flagConfigArgs []string
	flagIncludes   bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "confstack",
		Short:         "Inspect layered configuration the way an application resolves it",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagApp, "app", "confstack", "application name (selects .<app> directories and <APP>_* variables)")
	root.PersistentFlags().StringVar(&flagCwd, "cwd", "", "resolve configuration for this directory instead of the current one")
	root.PersistentFlags().StringArrayVar(&flagConfigArgs, "config", nil, "override a config value (key=value) or load an extra file")
	root.PersistentFlags().BoolVar(&flagIncludes, "includes", false, "resolve `include` keys in config files")

	root.AddCommand(getCmd(), dumpCmd(), sourcesCmd())
	return root
}

func buildConfig() (*confstack.Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	b := confstack.NewBuilder(flagApp).
		WithLogger(logger).
		WithCLIConfig(flagConfigArgs).
		WithIncludes(flagIncludes)
	if flagCwd != "" {
		b = b.WithCwd(flagCwd)
	}
	return b.Build()
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the resolved value of one dotted key and where it came from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			value, def, err := cfg.GetRaw(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\t(from %s)\n", value, def)
			return nil
		},
	}
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the fully merged configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			values, err := cfg.Values()
			if err != nil {
				return err
			}
			raw := make(map[string]any, len(values))
			for name, cv := range values {
				raw[name] = cv.ToRaw()
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(raw)
		},
	}
}

func sourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the config files that participate in resolution, in walk order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig()
			if err != nil {
				return err
			}
			paths, err := cfg.ConfigFiles()
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}
