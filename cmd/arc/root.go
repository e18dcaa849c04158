package main

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variables that set flags,
// e.g. ARC_VERBOSE=true.
const envPrefix = "ARC"

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "arc",
		Short: "Assemble deterministic archives",
		Long: `arc assembles zip, jar and tar archives from directory trees.

Entries are written in a fixed order: directories first, then files,
each sorted by name. Building the same inputs twice yields archives
with the same entries in the same order.

Examples:
  arc build -c assemble.toml
  arc build --output build/app.jar --fileset build/classes --optional src/main/resources
  arc ls build/app.jar`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "log each file set as it is expanded")

	root.AddCommand(newBuildCmd(v), newLsCmd(v))
	return root
}

// newLogger returns the stderr logger for cmd.
func newLogger(cmd *cobra.Command, v *viper.Viper) *log.Logger {
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "arc",
	})
	if v.GetBool("verbose") {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
