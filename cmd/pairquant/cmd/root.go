// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ChrisMcGann/PairQuant/pkg/config"
)

var (
	cfgFile string
	verbose bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pairquant",
	Short: "PairQuant - Label pair quantification tool",
	Long: `PairQuant pairs heavy/light labeled peptides from quantification
summaries and reports their relative abundance.

Workflow:
- complete: add the missing partner of every singly labeled molecule
- aggregate: group summary rows by molecule key, attach matches, curate
  and store ratios in a SQLite database
- ratios: print ratios, curation and gradient colors as a table`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		logger.Debug("Loaded configuration",
			zap.Strings("labels", cfg.LabelNames()),
			zap.Int("min_matches", cfg.MinMatches),
			zap.String("ratio_field", cfg.Ratio.Field))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(ratiosCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./pairquant.yaml or ~/.config/pairquant/pairquant.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.Int("min-matches", config.DefaultMinMatches, "Matches required per label for a pair to pass curation")
	flags.Float64("min-score", 0, "Drop matches scoring below this value")
	flags.Float64("rt-tolerance", config.DefaultRTBorderTolerance, "Retention-time window border tolerance (min)")
	flags.String("ratio-field", config.DefaultRatioField, "Numeric label field the ratio is computed from")
	flags.Int("prefix-offset", 0, "Sequence prefix boundary relative to the modification marker")
	flags.String("mods", "", "Path to extra modification definitions CSV (mod,massshift,composition)")

	bind := map[string]string{
		"min_matches":         "min-matches",
		"min_score":           "min-score",
		"rt_border_tolerance": "rt-tolerance",
		"ratio.field":         "ratio-field",
		"codec.prefix_offset": "prefix-offset",
		"modifications_csv":   "mods",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pairquant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pairquant"))
		}
	}

	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("PAIRQUANT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
