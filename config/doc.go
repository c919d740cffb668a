// Package config provides layered configuration loading for regkit
// applications: a YAML config file as the base, a .env file, and process
// environment variables on top, unmarshalled into the caller's struct
// via viper.
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Registry registry.Config `yaml:"registry" mapstructure:"registry"`
//	}
//
//	var cfg AppConfig
//	err := config.LoadConfig("billing", &cfg)
package config
