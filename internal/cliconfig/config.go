// Package cliconfig loads the CLI's configuration: which database to
// talk to, which dialect it speaks, and where its catalog/schema file
// lives. Flags (applied by the caller) override everything loaded here;
// values from .env files override the process environment (they are
// written into it), which overrides the config file, which overrides
// the built-in defaults.
package cliconfig

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem config loading reads through; tests may swap
// it for an in-memory afero.Fs.
var AppFs = afero.NewOsFs()

// Config holds the settings a queryforge CLI invocation needs.
type Config struct {
	SchemaPath  string
	Dialect     string
	DatabaseURL string
	MaxDepth    int
}

// Load reads configuration from ./.queryforge.yaml or the user's home
// config directory, environment variables prefixed QUERYFORGE_, and
// .env/.env.local files, in that order of increasing precedence.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".queryforge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "queryforge"))

	viper.SetEnvPrefix("QUERYFORGE")
	viper.AutomaticEnv()
	_ = viper.BindEnv("database_url", "DATABASE_URL")

	viper.SetDefault("schema_path", "schema.json")
	viper.SetDefault("dialect", "postgres")
	viper.SetDefault("max_depth", 8)

	_ = viper.ReadInConfig()

	loadDotEnv(".env")
	loadDotEnv(".env.local")

	return &Config{
		SchemaPath:  viper.GetString("schema_path"),
		Dialect:     viper.GetString("dialect"),
		DatabaseURL: viper.GetString("database_url"),
		MaxDepth:    viper.GetInt("max_depth"),
	}, nil
}

func loadDotEnv(path string) {
	data, err := afero.ReadFile(AppFs, path)
	if err != nil {
		return
	}
	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return
	}
	for k, v := range envMap {
		os.Setenv(k, v)
	}
}
