package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/embedding"
	"github.com/spigell/assessment-recommender/internal/recommend"
)

const (
	app       = "assessment-recommender"
	envPrefix = "RECOMMENDER"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Catalog   catalog.Config   `mapstructure:"catalog"`
	Embedding embedding.Config `mapstructure:"embedding"`
	Recommend recommend.Config `mapstructure:"recommend"`
	Telemetry TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	CORSOrigins     []string      `mapstructure:"cors-origins"`
}

type TelemetryConfig struct {
	TracesEndpoint string `mapstructure:"traces-endpoint"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessment-recommender ranks catalog assessments against a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is assessment-recommender.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	catalogDefaults := catalog.DefaultConfig()
	embeddingDefaults := embedding.DefaultConfig()
	recommendDefaults := recommend.DefaultConfig()

	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.read-timeout", 10*time.Second)
	v.SetDefault("server.write-timeout", 120*time.Second)
	v.SetDefault("server.shutdown-timeout", 10*time.Second)
	v.SetDefault("server.cors-origins", []string{"*"})

	v.SetDefault("catalog.url", catalogDefaults.URL)
	v.SetDefault("catalog.timeout", catalogDefaults.Timeout)
	v.SetDefault("catalog.attempts", catalogDefaults.Attempts)
	v.SetDefault("catalog.retry-wait-min", catalogDefaults.RetryWaitMin)
	v.SetDefault("catalog.retry-wait-max", catalogDefaults.RetryWaitMax)
	v.SetDefault("catalog.user-agent", catalogDefaults.UserAgent)

	v.SetDefault("embedding.provider", embeddingDefaults.Provider)
	v.SetDefault("embedding.gemini.model", embeddingDefaults.Gemini.Model)
	v.SetDefault("embedding.gemini.api-key", "")
	v.SetDefault("embedding.gemini.api-key-file", "")
	v.SetDefault("embedding.gemini.batch-size", embeddingDefaults.Gemini.BatchSize)
	v.SetDefault("embedding.hashing.dimensions", embeddingDefaults.Hashing.Dimensions)

	v.SetDefault("recommend.min-score", recommendDefaults.MinScore)
	v.SetDefault("recommend.default-max-results", recommendDefaults.DefaultMaxResults)

	v.SetDefault("telemetry.traces-endpoint", "")
}

func initConfig() {
	// A missing .env is the normal case outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if err := readConfig(viper.GetViper(), cfgFile); err != nil {
		log.Fatal(err)
	}
}

// readConfig wires environment overrides and reads the optional config file.
// An explicitly requested file must exist.
func readConfig(v *viper.Viper, file string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

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
		return fmt.Errorf("reading config: %w", err)
	}

	return nil
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Catalog.Shapes = catalog.DefaultShapes()
	if raw := v.Get("catalog.shapes"); raw != nil {
		shapes, err := catalog.DecodeShapes(raw)
		if err != nil {
			return nil, err
		}
		config.Catalog.Shapes = shapes
	}

	return &config, nil
}
