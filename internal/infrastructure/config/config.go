package config

import (
	"fmt"
	"time"

	"github.com/poly-workshop/go-webmods/app"
	"github.com/spf13/viper"
)

const (
	defaultGeminiTimeout    = 120 * time.Second
	defaultDashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	defaultReasoningModel   = "gemini/gemini-3-pro-preview"
	defaultCompressionModel = "gemini/gemini-3-flash-preview"
	defaultVideoModel       = "veo-3.1-fast-generate-preview"

	defaultPollInterval = 10 * time.Second
	defaultPollMaxWait  = 20 * time.Minute

	defaultChatIdleTTL = 30 * time.Minute
)

type GRPCAppConfig struct {
	GRPC struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"grpc"`

	Health struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"health"`

	Auth struct {
		ServiceTokens []struct {
			Name  string `mapstructure:"name"`
			Token string `mapstructure:"token"`
		} `mapstructure:"service_tokens"`
	} `mapstructure:"auth"`

	Gemini struct {
		// APIKey may be empty; calls fail on first use.
		APIKey  string        `mapstructure:"api_key"`
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"gemini"`

	Providers struct {
		DashScope struct {
			BaseURL string        `mapstructure:"base_url"`
			APIKey  string        `mapstructure:"api_key"`
			Timeout time.Duration `mapstructure:"timeout"`
		} `mapstructure:"dashscope"`
	} `mapstructure:"providers"`

	Models struct {
		Reasoning   string `mapstructure:"reasoning"`
		Compression string `mapstructure:"compression"`
		Video       string `mapstructure:"video"`
	} `mapstructure:"models"`

	Video struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
		MaxPolls     uint64        `mapstructure:"max_polls"`
		// MaxWait of 0 keeps polling until the job finishes or the request is cancelled.
		MaxWait     time.Duration `mapstructure:"max_wait"`
		CallbackURL string        `mapstructure:"callback_url"`
	} `mapstructure:"video"`

	Chat struct {
		// IdleTTL drops conversations unused for this long; 0 keeps them until deleted.
		IdleTTL time.Duration `mapstructure:"idle_ttl"`
	} `mapstructure:"chat"`
}

func LoadGRPC() (GRPCAppConfig, error) {
	v := app.Config()
	if v == nil {
		return GRPCAppConfig{}, fmt.Errorf("app.Config() is nil: did you call app.Init(...) first?")
	}
	return loadGRPC(v)
}

func loadGRPC(v *viper.Viper) (GRPCAppConfig, error) {
	cfg := GRPCAppConfig{}

	if err := v.BindEnv("gemini.api_key", "API_KEY", "GEMINI_API_KEY"); err != nil {
		return cfg, fmt.Errorf("bind env: %w", err)
	}
	v.SetDefault("video.max_wait", defaultPollMaxWait)
	v.SetDefault("chat.idle_ttl", defaultChatIdleTTL)

	if err := unmarshalViper(v, &cfg); err != nil {
		return cfg, err
	}

	if cfg.GRPC.Listen == "" {
		return cfg, fmt.Errorf("missing config: grpc.listen")
	}
	if cfg.Health.Listen == "" {
		return cfg, fmt.Errorf("missing config: health.listen")
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = defaultGeminiTimeout
	}
	if cfg.Providers.DashScope.BaseURL == "" {
		cfg.Providers.DashScope.BaseURL = defaultDashScopeBaseURL
	}
	if cfg.Models.Reasoning == "" {
		cfg.Models.Reasoning = defaultReasoningModel
	}
	if cfg.Models.Compression == "" {
		cfg.Models.Compression = defaultCompressionModel
	}
	if cfg.Models.Video == "" {
		cfg.Models.Video = defaultVideoModel
	}
	if cfg.Video.PollInterval <= 0 {
		cfg.Video.PollInterval = defaultPollInterval
	}

	return cfg, nil
}

type HTTPAppConfig struct {
	HTTP struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"http"`

	GRPC struct {
		Target   string `mapstructure:"target"`
		Insecure bool   `mapstructure:"insecure"`
	} `mapstructure:"grpc"`
}

func LoadHTTP() (HTTPAppConfig, error) {
	v := app.Config()
	if v == nil {
		return HTTPAppConfig{}, fmt.Errorf("app.Config() is nil: did you call app.Init(...) first?")
	}
	return loadHTTP(v)
}

func loadHTTP(v *viper.Viper) (HTTPAppConfig, error) {
	cfg := HTTPAppConfig{}

	if err := unmarshalViper(v, &cfg); err != nil {
		return cfg, err
	}

	if cfg.HTTP.Listen == "" {
		return cfg, fmt.Errorf("missing config: http.listen")
	}
	if cfg.GRPC.Target == "" {
		return cfg, fmt.Errorf("missing config: grpc.target")
	}

	return cfg, nil
}

func unmarshalViper(v *viper.Viper, out any) error {
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
