package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/someyob/MiniHamClock/internal/credentials"
	"github.com/someyob/MiniHamClock/internal/messaging"
	"github.com/someyob/MiniHamClock/internal/storage"
)

const (
	defaultEnvFile = ".env"
	defaultTimeout = 10 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "minihamclock",
		Short:         "Inspect and check the clock's network, broker and location settings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to YAML settings overrides")
	rootCmd.PersistentFlags().String("env", defaultEnvFile, "Path to dotenv settings overrides")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(showCmd(), checkCmd(), framesCmd(), publishCmd(), saveCmd())
	return rootCmd
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("snapshot"); path != "" {
				return showSnapshot(cmd.OutOrStdout(), path)
			}

			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal {
				redacted := s.Redacted()
				s = &redacted
			}
			return writeYAML(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().Bool("reveal", false, "Print the Wi-Fi password in clear")
	cmd.Flags().String("snapshot", "", "Print a snapshot written by save instead")
	return cmd
}

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the settings and optionally probe the broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFor(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(logger)

			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger.Info("Settings valid",
				zap.String("ssid", s.WiFi.SSID),
				zap.String("broker", s.MQTT.BrokerURL()),
				zap.String("zone", s.Time.StandardTime+"/"+s.Time.DaylightSavings),
				zap.Float64("latitude", s.Location.Latitude),
				zap.Float64("longitude", s.Location.Longitude))

			if probe, _ := cmd.Flags().GetBool("broker"); !probe {
				return nil
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if err := messaging.Probe(s, messaging.ClientID(ClientIDPrefix), timeout, logger); err != nil {
				return fmt.Errorf("broker %s unreachable: %w", s.MQTT.BrokerURL(), err)
			}
			logger.Info("Broker reachable", zap.String("broker", s.MQTT.BrokerURL()))
			return nil
		},
	}
	cmd.Flags().Bool("broker", false, "Connect to the MQTT broker and disconnect")
	cmd.Flags().Duration("timeout", defaultTimeout, "Broker connect timeout")
	return cmd
}

func framesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Print the encoded settings frames as hex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if reveal, _ := cmd.Flags().GetBool("reveal"); !reveal {
				redacted := s.Redacted()
				s = &redacted
			}
			frames, err := messaging.EncodeSettings(s)
			if err != nil {
				return err
			}
			for _, f := range frames {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%02X %s\n", f[0], hex.EncodeToString(f))
			}
			return nil
		},
	}
	cmd.Flags().Bool("reveal", false, "Encode the Wi-Fi password instead of a placeholder")
	return cmd
}

func publishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the timezone and location frames as retained messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFor(cmd)
			if err != nil {
				return err
			}
			defer syncLogger(logger)

			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			opts, err := messaging.NewClientOptions(s, messaging.ClientID(ClientIDPrefix), nil)
			if err != nil {
				return err
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if err := messaging.Connect(opts, timeout, logger); err != nil {
				return err
			}
			defer messaging.Disconnect(logger)

			return messaging.PublishSettings(s, messaging.SettingsTopics{
				Timezone: TopicTimezone,
				Location: TopicLocation,
			}, logger)
		},
	}
	cmd.Flags().Duration("timeout", defaultTimeout, "Broker connect timeout")
	return cmd
}

func saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save FILE",
		Short: "Write the redacted settings to a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			m, err := storage.New(args[0])
			if err != nil {
				return err
			}
			if err := m.Save(*s, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved settings to %s\n", m.Path())
			return nil
		},
	}
}

func loadSettings(cmd *cobra.Command) (*credentials.Settings, error) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env")

	return credentials.Load(credentials.Sources{
		YAMLFile:        configFile,
		EnvFile:         envFile,
		EnvFileOptional: !cmd.Flags().Changed("env"),
		ProcessEnv:      true,
	})
}

func showSnapshot(w io.Writer, path string) error {
	m, err := storage.New(path)
	if err != nil {
		return err
	}
	snap, err := m.Load()
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	fmt.Fprintf(w, "# saved %s, broker %s\n", snap.SavedAt.Format(time.RFC3339), snap.Broker)
	return writeYAML(w, &snap.Settings)
}

func writeYAML(w io.Writer, s *credentials.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func loggerFor(cmd *cobra.Command) (*zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	return initLogger(level)
}

func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	config := zap.NewProductionConfig()
	if IsDebugBuild {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "minihamclock")), nil
}

func syncLogger(logger *zap.Logger) {
	// stderr sync fails on some terminals; nothing to do about it
	_ = logger.Sync()
}
