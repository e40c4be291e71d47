package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LevelTrace sits below debug and logs every emitted instruction block.
const LevelTrace = slog.Level(-8)

var (
	configFiles    []string
	envFiles       []string
	level, version string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "beandefgen",
	Short:         "compile bean descriptions into loadable definitions",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion records the build version in the config.
func SetVersion(v string) { version = v }

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&level, "level", "l", "", "log level (trace, debug, info, warn, error, debug+1, etc)")
	rootCmd.PersistentFlags().StringSliceVar(&configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{}, "dotenv file(s) loaded before config, .env when present")
}

// parseLevel accepts slog level names plus "trace".
func parseLevel(s string) (slog.Level, error) {
	if strings.EqualFold(s, "trace") {
		return LevelTrace, nil
	}
	var ll slog.Level
	if err := ll.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return ll, nil
}

func newLogger(w io.Writer, ll slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     ll,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok && lv <= LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}))
}

// initConfig reads in .env, config files and ENV variables, then installs
// the default logger.
func initConfig() {
	l := newLogger(os.Stderr, slog.LevelInfo)

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			l.With("error", err, "files", envFiles).Warn("unable to load env file(s)")
		}
	} else {
		_ = godotenv.Load()
	}

	if len(configFiles) > 0 {
		// Use config file from the flag.
		viper.SetConfigFile(configFiles[0])
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		l.With("config", viper.ConfigFileUsed()).Debug("using config file(s)")
	} else {
		l.With("error", err, "config", viper.ConfigFileUsed()).Debug("unable to use config file(s)")
	}
	if len(configFiles) > 1 {
		for _, file := range configFiles[1:] {
			if configBytes, err := os.ReadFile(file); err == nil {
				if err = viper.MergeConfig(bytes.NewReader(configBytes)); err != nil {
					l.With("error", err, "file", file).Warn("failed to merge config file")
				} else {
					l.With("file", file).Debug("merged config file")
				}
			}
		}
	}
	if len(version) > 0 {
		viper.Set("version", version)
	}

	// the flag wins over common.log.level
	llstr := level
	if llstr == "" {
		llstr = viper.GetString("common.log.level")
	}
	ll := slog.LevelInfo
	if llstr != "" {
		parsed, err := parseLevel(llstr)
		if err != nil {
			l.With("error", err).Warn("falling back to info")
		} else {
			ll = parsed
		}
	}
	slog.SetDefault(newLogger(os.Stderr, ll))
}
