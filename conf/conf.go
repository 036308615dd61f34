// Package conf loads process configuration from file and environment.
// File lookup order: ./config.yml, ./conf/config.yml, /etc/tenon/config.yml.
// Environment variables override file values with the TENON_ prefix, e.g.
// TENON_SERVER_PORT=8090.
package conf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/tenonhq/tenon/internal/authn"
	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/log"
	"github.com/tenonhq/tenon/internal/pkg/xcache"
	"github.com/tenonhq/tenon/internal/server"
	"github.com/tenonhq/tenon/internal/server/db"
)

type Config struct {
	APIServer server.Config `conf:"server" yaml:"server" json:"server"`
	Log       log.Config    `conf:"log" yaml:"log" json:"log"`
	DB        db.Config     `conf:"db" yaml:"db" json:"db"`
	Auth      AuthConfig    `conf:"auth" yaml:"auth" json:"auth"`
	Cache     xcache.Config `conf:"cache" yaml:"cache" json:"cache"`
}

type AuthConfig struct {
	Authn authn.Config `conf:"authn" yaml:"authn" json:"authn"`
	Authz authz.Config `conf:"authz" yaml:"authz" json:"authz"`
}

func Load() (Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./conf")
	v.AddConfigPath("/etc/tenon")

	v.SetEnvPrefix("TENON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config

	err := v.Unmarshal(&config, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "conf"
	})
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.name", "tenon")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.request_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("db.dialect", "sqlite")
	v.SetDefault("db.dsn", "tenon.db")

	v.SetDefault("cache.mode", "memory")
}
