package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"cinnarito/internal/structures"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// .env is optional; real environment variables still win
	_ = godotenv.Load()

	v := viper.New()
	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	setDefaults(v)

	v.BindEnv("logger.level", "CINNARITO_LOG_LEVEL")
	v.BindEnv("redis.addr", "CINNARITO_REDIS_ADDR")
	v.BindEnv("redis.password", "CINNARITO_REDIS_PASSWORD")
	v.BindEnv("webServer.port", "CINNARITO_PORT")
	v.BindEnv("cache.enabled", "CINNARITO_CACHE_ENABLED")
	v.BindEnv("metrics.enabled", "CINNARITO_METRICS_ENABLED")
	v.BindEnv("platform.baseURL", "CINNARITO_PLATFORM_URL")
	v.BindEnv("platform.token", "CINNARITO_PLATFORM_TOKEN")
	v.BindEnv("chronicle.enabled", "CINNARITO_CHRONICLE_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "Cinnarito"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 3000)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.dialTimeout", 5*time.Second)
	v.SetDefault("cache.ttl", 2*time.Second)
	v.SetDefault("game.namespace", "cinnarito")
	v.SetDefault("game.startingCinnamon", 100)
	v.SetDefault("game.maxCinnamon", 1000)
	v.SetDefault("game.historyLimit", 1000)
	v.SetDefault("game.activePlayerWindow", time.Hour)
	v.SetDefault("actions.cooldownScope", structures.CooldownScopePlayer)
	v.SetDefault("actions.collectAmount", 25)
	v.SetDefault("actions.collectCooldown", 10*time.Minute)
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.baseDelay", time.Second)
	v.SetDefault("retry.casAttempts", 10)
	v.SetDefault("chronicle.tickInterval", time.Minute)
	v.SetDefault("archive.interval", 10*time.Minute)
	v.SetDefault("platform.timeout", 10*time.Second)
	v.SetDefault("platform.usernameHeader", "X-Reddit-Username")
}
