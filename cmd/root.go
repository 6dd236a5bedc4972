package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/offer-predictor/internal/logger"
)

const (
	app       = "offer-predictor"
	envPrefix = "OFFER"
)

type Config struct {
	Server  *ServerConfig  `mapstructure:"server"`
	Model   *ModelConfig   `mapstructure:"model"`
	Metrics *MetricsConfig `mapstructure:"metrics"`
	Log     *LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

type ModelConfig struct {
	Path string `mapstructure:"path"`
	// CacheSize is the prediction cache size in bytes, 0 disables it.
	CacheSize int `mapstructure:"cache-size"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max-size-mb"`
	MaxBackups int    `mapstructure:"max-backups"`
	MaxAgeDays int    `mapstructure:"max-age-days"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "offer-predictor estimates how likely a candidate is to accept a job offer",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is offer-predictor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.read-timeout", "30s")
	v.SetDefault("server.write-timeout", "30s")
	v.SetDefault("model.path", "offer_acceptance_model.json")
	v.SetDefault("model.cache-size", 0)
	v.SetDefault("metrics.path", "model_metrics.json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max-size-mb", 100)
	v.SetDefault("log.max-backups", 3)
	v.SetDefault("log.max-age-days", 28)

	// OFFER_MODEL_PATH overrides model.path and so on.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// Nothing to configure for the version command.
	if versionCmd.CalledAs() != "" {
		return
	}

	// A missing .env is fine, the environment itself may carry the overrides.
	_ = godotenv.Load()

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig reads the config file. An explicitly given file must exist, the
// default one is optional.
func readConfig(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(app)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// setup builds the logger and the config shared by all commands.
func setup() (*zap.Logger, *Config) {
	config, err := getConfig(viper.GetViper())
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	fileOpts := logger.FileOptions{}
	if config.Log != nil {
		fileOpts = logger.FileOptions{
			Path:       config.Log.File,
			MaxSizeMB:  config.Log.MaxSizeMB,
			MaxBackups: config.Log.MaxBackups,
			MaxAgeDays: config.Log.MaxAgeDays,
		}
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), fileOpts)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("using config file", zap.String("file", f))
	}

	return logger, config
}
