package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/aita/minidb/config"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "minidb",
	Short:         "A single-table record store in a flat file",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.minidb.yaml)")
	flags.Int64("cache-pages", 0, "pages to keep in the page cache, 0 disables it")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("layouts", "", "properties file of named field specs")
	viper.BindPFlag("cache.pages", flags.Lookup("cache-pages"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("layouts", flags.Lookup("layouts"))
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".minidb")
	}
	viper.SetEnvPrefix("minidb")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err = cfg.Logger.NewLogger()
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", zap.String("file", viper.ConfigFileUsed()))
	return nil
}
