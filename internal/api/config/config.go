package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量优先级高于配置文件
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	setDefaults()

	// 凭据类配置允许通过环境变量注入（如 LLM_API_KEY、TWITTER_ACCESS_TOKEN）
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{
		"server.port",
		"server.mode",
		"mongo.url",
		"mongo.database",
		"redis.addr",
		"redis.password",
		"llm.api_key",
		"llm.url",
		"llm.text_model",
		"twitter.api_key",
		"twitter.api_secret",
		"twitter.access_token",
		"twitter.access_secret",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "twitter_agent")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("llm.url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	viper.SetDefault("llm.text_model", "gemini-2.0-flash")
	viper.SetDefault("twitter.base_url", "https://api.twitter.com")
	// 每天 10:00 UTC 发布一条
	viper.SetDefault("schedule.daily_tweet", "0 0 10 * * *")
	viper.SetDefault("rate_limit.tweets_per_day", 50)
	viper.SetDefault("rate_limit.generate_per_minute", 60)
}

// Validate 校验启动必需项，缺少凭据时禁止对外提供服务
func (s *Config) Validate() error {
	if s.LLM.ApiKey == "" {
		return errors.New("config: llm.api_key is required")
	}
	required := map[string]string{
		"twitter.api_key":       s.Twitter.ApiKey,
		"twitter.api_secret":    s.Twitter.ApiSecret,
		"twitter.access_token":  s.Twitter.AccessToken,
		"twitter.access_secret": s.Twitter.AccessSecret,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("config: %s is required", key)
		}
	}
	if s.Mongo.URL == "" {
		return errors.New("config: mongo.url is required")
	}
	return nil
}
