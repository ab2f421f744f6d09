package store

import (
	"log"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config locates the on-disk data directory.
type Config interface {
	BasePath() string
}

// LoadConfig reads configuration from an .interruptlog file in the working
// directory or from INTERRUPTLOG_* environment variables.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.interruptlog.db")
	viper.SetConfigName(".interruptlog") // .yaml is implicit
	viper.SetEnvPrefix("INTERRUPTLOG")
	viper.AutomaticEnv()

	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("error reading config file: %v", err)
			return nil, err
		}
	}

	path, err := homedir.Expand(viper.GetString("path"))
	if err != nil {
		return nil, err
	}
	return &fileConfig{Path: path}, nil
}

type fileConfig struct {
	Path string `json:"path"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

// FixedConfig pins the base path, used by tests and by callers that manage
// their own directories.
type FixedConfig string

func (f FixedConfig) BasePath() string {
	return string(f)
}
