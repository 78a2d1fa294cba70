// Package config loads firekit configuration from YAML files and the
// environment using viper, with optional .env support via godotenv.
//
// Packages define their own Config structs with ApplyDefaults and
// Validate methods; applications embed BaseConfig and load the whole
// tree in one call:
//
//	type AppConfig struct {
//	    config.BaseConfig `yaml:",inline" mapstructure:",squash"`
//	    Database rtdb.Config    `yaml:"database" mapstructure:"database"`
//	    Storage  storage.Config `yaml:"storage" mapstructure:"storage"`
//	}
//
//	var cfg AppConfig
//	err := config.Load("myapp", &cfg)
package config
