package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"git.sr.ht/~whereswaldon/livechart/chart"
	"git.sr.ht/~whereswaldon/livechart/internal/logger"
)

// config is the resolved configuration from flags, environment and the
// optional config file.
type config struct {
	Mode           string  `mapstructure:"mode"`
	UnitWidth      float64 `mapstructure:"unit-width"`
	MaxColumnWidth float64 `mapstructure:"max-column-width"`
	ColumnPadding  float64 `mapstructure:"column-padding"`
	Labels         bool    `mapstructure:"labels"`
	Hover          bool    `mapstructure:"hover"`
	Frames         string  `mapstructure:"frames"`
	LogLevel       string  `mapstructure:"log-level"`
	Pretty         bool    `mapstructure:"pretty"`
	Color          bool    `mapstructure:"color"`
}

var cfg config

var rootCmd = &cobra.Command{
	Use:           "livechart",
	Short:         "Lay out stacked column charts from CSV data.",
	Long:          `livechart reads a CSV file of categories and series values, stacks the series and reports the primitives a renderer would draw.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(watchCmd)

	defaults := chart.ColumnDefaults()
	rootCmd.PersistentFlags().String("mode", chart.StackValues.String(), "Stack mode: values or percentage")
	rootCmd.PersistentFlags().Float64("unit-width", 40, "Device width of one category")
	rootCmd.PersistentFlags().Float64("max-column-width", defaults.MaxColumnWidth, "Widest a column may be")
	rootCmd.PersistentFlags().Float64("column-padding", defaults.ColumnPadding, "Gap between neighbouring columns")
	rootCmd.PersistentFlags().Bool("labels", defaults.DataLabels, "Draw data labels")
	rootCmd.PersistentFlags().Bool("hover", defaults.Hoverable, "Attach hover shapes")
	rootCmd.PersistentFlags().String("frames", "", "Append msgpack-encoded instruction frames to this file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("pretty", true, "Human-readable log output")
	rootCmd.PersistentFlags().Bool("color", true, "Colour the summary line")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Errorf("failed binding flags: %w", err))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".livechart")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}
	viper.SetEnvPrefix("LIVECHART")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// setup resolves the configuration and builds the logger.
func setup() (zerolog.Logger, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return zerolog.Nop(), fmt.Errorf("failed reading config file: %w", err)
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return zerolog.Nop(), fmt.Errorf("failed decoding config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty})
	if path := viper.ConfigFileUsed(); path != "" {
		log.Debug().Str("path", path).Msg("loaded config file")
	}
	return log, nil
}

// chartDefaults applies the resolved configuration to the column defaults.
func (c config) chartDefaults() (chart.Defaults, chart.StackMode, error) {
	mode, err := chart.ParseStackMode(c.Mode)
	if err != nil {
		return chart.Defaults{}, mode, err
	}
	d := chart.ColumnDefaults()
	d.MaxColumnWidth = c.MaxColumnWidth
	d.ColumnPadding = c.ColumnPadding
	d.DataLabels = c.Labels
	d.Hoverable = c.Hover
	return d, mode, nil
}
