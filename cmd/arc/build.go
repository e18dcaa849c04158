package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/savantbuild/archiver/internal/config"
)

func newBuildCmd(v *viper.Viper) *cobra.Command {
	var filesets, optional []string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an archive",
		Long: `Build an archive from a description file or from flags.

With --config, the archive is described by a TOML file; --output,
--format and --compression then override the values it contains.
Without it, --output and at least one --fileset or --optional
directory are required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd, v)

			cfg, err := buildConfig(v, filesets, optional)
			if err != nil {
				return err
			}
			b, err := cfg.NewBuilder(logger)
			if err != nil {
				return err
			}
			count, err := b.Build(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", cfg.Output, count)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "TOML file describing the archive")
	flags.StringP("output", "o", "", "archive file to create")
	flags.String("format", "", "archive format, if not implied by the output name (zip, jar, tar, tar.gz, ...)")
	flags.String("compression", "", "zip and jar entry compression: store, deflate, bzip2, zstd or xz")
	flags.StringArrayVar(&filesets, "fileset", nil, "directory whose files are added; must exist (repeatable)")
	flags.StringArrayVar(&optional, "optional", nil, "directory whose files are added if it exists (repeatable)")
	return cmd
}

// buildConfig merges the description file, if any, with the flags.
// File sets from flags are registered after those of the file.
func buildConfig(v *viper.Viper, filesets, optional []string) (*config.Config, error) {
	cfg := new(config.Config)
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if output := v.GetString("output"); output != "" {
		cfg.Output = output
	}
	if format := v.GetString("format"); format != "" {
		cfg.Format = format
	}
	if compression := v.GetString("compression"); compression != "" {
		cfg.Compression = compression
	}
	for _, root := range filesets {
		cfg.FileSets = append(cfg.FileSets, config.FileSet{Root: root})
	}
	for _, root := range optional {
		cfg.FileSets = append(cfg.FileSets, config.FileSet{Root: root, Optional: true})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
