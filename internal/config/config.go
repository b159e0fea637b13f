package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config é a configuração completa do serviço.
// O arquivo YAML define a estrutura; credenciais vêm sempre do ambiente
// (arquivo .env em dev) e são sobrepostas em Load.
type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
		// Nível mínimo de log: debug | info | warn | error
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
	} `yaml:"server"`

	// Sankhya é o ERP upstream. As quatro credenciais do login de sistema
	// vêm do ambiente: SANKHYA_APPKEY, SANKHYA_USERNAME, SANKHYA_PASSWORD,
	// SANKHYA_TOKEN. A URL pode vir do YAML ou de SANKHYA_API_URL.
	Sankhya struct {
		BaseURL  string `yaml:"base_url"`
		AppKey   string `yaml:"-"`
		Username string `yaml:"-"`
		Password string `yaml:"-"`
		Token    string `yaml:"-"`
		// Timeout por chamada ao gateway.
		Timeout string `yaml:"timeout"`
	} `yaml:"sankhya"`

	Session struct {
		// Secret vem de JWT_SECRET no ambiente.
		Secret     string `yaml:"-"`
		CookieName string `yaml:"cookie_name"`
		TTL        string `yaml:"ttl"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"session"`

	Lockout struct {
		MaxAttempts int    `yaml:"max_attempts"`
		Duration    string `yaml:"duration"`
	} `yaml:"lockout"`

	Rate struct {
		Disabled    bool   `yaml:"disabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Cache struct {
		// memory | redis
		Kind string `yaml:"kind"`
		TTL  string `yaml:"ttl"`

		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Alert struct {
		Enabled bool   `yaml:"enabled"`
		To      string `yaml:"to"`
		SMTP    struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			From     string `yaml:"from"`
			Username string `yaml:"-"` // SMTP_USERNAME
			Password string `yaml:"-"` // SMTP_PASSWORD
		} `yaml:"smtp"`
	} `yaml:"alert"`
}

// Load lê o YAML do path dado, aplica defaults e sobrepõe as variáveis de
// ambiente sensíveis. Um path vazio usa apenas defaults + ambiente.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// defaults sensatos
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3030"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Sankhya.Timeout == "" {
		c.Sankhya.Timeout = "30s"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sessionToken"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "8h"
	}
	if c.Lockout.MaxAttempts == 0 {
		c.Lockout.MaxAttempts = 10
	}
	if c.Lockout.Duration == "" {
		c.Lockout.Duration = "15m"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "15m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 200
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "10m"
	}
	if c.Alert.SMTP.Port == 0 {
		c.Alert.SMTP.Port = 587
	}

	// ambiente por cima do YAML
	if v := os.Getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Addr = ":" + v
		}
	}
	if v := os.Getenv("SANKHYA_API_URL"); v != "" {
		c.Sankhya.BaseURL = v
	}
	c.Sankhya.AppKey = os.Getenv("SANKHYA_APPKEY")
	c.Sankhya.Username = os.Getenv("SANKHYA_USERNAME")
	c.Sankhya.Password = os.Getenv("SANKHYA_PASSWORD")
	c.Sankhya.Token = os.Getenv("SANKHYA_TOKEN")
	c.Session.Secret = os.Getenv("JWT_SECRET")
	c.Alert.SMTP.Username = os.Getenv("SMTP_USERNAME")
	c.Alert.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	if c.App.Env != "dev" {
		c.Session.Secure = true
	}

	// validação de durations em string
	for _, d := range []string{
		c.Server.ReadTimeout, c.Server.WriteTimeout, c.Sankhya.Timeout,
		c.Session.TTL, c.Lockout.Duration, c.Rate.Window, c.Cache.TTL,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, fmt.Errorf("config: duração inválida %q: %w", d, err)
		}
	}

	return &c, nil
}

// Validate confere os campos obrigatórios para subir o servidor.
func (c *Config) Validate() error {
	if c.Sankhya.BaseURL == "" {
		return fmt.Errorf("config: SANKHYA_API_URL não definida")
	}
	if c.Sankhya.AppKey == "" || c.Sankhya.Username == "" || c.Sankhya.Password == "" || c.Sankhya.Token == "" {
		return fmt.Errorf("config: credenciais Sankhya incompletas (SANKHYA_APPKEY/USERNAME/PASSWORD/TOKEN)")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET não definido")
	}
	return nil
}

// Duration retorna a duration já validada em Load.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// IsSandbox indica se a URL aponta para o ambiente de testes do ERP.
func (c *Config) IsSandbox() bool {
	return c.Sankhya.BaseURL == "https://api.sandbox.sankhya.com.br"
}
