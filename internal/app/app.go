// Package app monta todas as dependências do serviço.
package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zenithwms/zenith/internal/alert"
	"github.com/zenithwms/zenith/internal/cache"
	"github.com/zenithwms/zenith/internal/config"
	authctrl "github.com/zenithwms/zenith/internal/http/controllers/auth"
	wmsctrl "github.com/zenithwms/zenith/internal/http/controllers/wms"
	"github.com/zenithwms/zenith/internal/http/metrics"
	mw "github.com/zenithwms/zenith/internal/http/middlewares"
	"github.com/zenithwms/zenith/internal/http/router"
	authsvc "github.com/zenithwms/zenith/internal/http/services/auth"
	wmssvc "github.com/zenithwms/zenith/internal/http/services/wms"
	"github.com/zenithwms/zenith/internal/rate"
	"github.com/zenithwms/zenith/internal/sankhya"
	"github.com/zenithwms/zenith/internal/session"
)

// App agrupa as peças montadas e o que precisa ser fechado no shutdown.
type App struct {
	handler http.Handler
	cache   cache.Client
}

// New conecta config, cliente do ERP, cache, sessões e rotas.
func New(cfg *config.Config) (*App, error) {
	httpClient := &http.Client{
		Timeout:   config.Duration(cfg.Sankhya.Timeout),
		Transport: sankhya.NewTransport(),
	}
	tokens := sankhya.NewTokenManager(httpClient, cfg.Sankhya.BaseURL, sankhya.Credentials{
		AppKey:   cfg.Sankhya.AppKey,
		Username: cfg.Sankhya.Username,
		Password: cfg.Sankhya.Password,
		Token:    cfg.Sankhya.Token,
	})
	client := sankhya.NewClient(httpClient, cfg.Sankhya.BaseURL, tokens)

	registry := prometheus.NewRegistry()
	if err := sankhya.RegisterMetrics(registry); err != nil {
		return nil, err
	}
	metricsHandler, err := metrics.Register(registry)
	if err != nil {
		return nil, err
	}

	cacheClient := cache.New(cache.Config{
		Kind:        cfg.Cache.Kind,
		DefaultTTL:  config.Duration(cfg.Cache.TTL),
		RedisAddr:   cfg.Cache.Redis.Addr,
		RedisDB:     cfg.Cache.Redis.DB,
		RedisPrefix: cfg.Cache.Redis.Prefix,
	})

	sessions := session.NewIssuer(cfg.Session.Secret, config.Duration(cfg.Session.TTL))
	lockout := rate.NewLoginTracker(cfg.Lockout.MaxAttempts, config.Duration(cfg.Lockout.Duration))

	var limiter rate.Limiter
	if !cfg.Rate.Disabled {
		limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, config.Duration(cfg.Rate.Window))
	}

	var notifier alert.Notifier = alert.NoOp{}
	if cfg.Alert.Enabled && cfg.Alert.SMTP.Host != "" {
		notifier = alert.NewSMTPNotifier(
			cfg.Alert.SMTP.Host, cfg.Alert.SMTP.Port,
			cfg.Alert.SMTP.From, cfg.Alert.To,
			cfg.Alert.SMTP.Username, cfg.Alert.SMTP.Password,
		)
	}

	queries := wmssvc.NewQueryService(client, cacheClient, config.Duration(cfg.Cache.TTL))
	transactions := wmssvc.NewTransactionService(client, queries)
	login := authsvc.NewLoginService(client, sessions, lockout, cfg.IsSandbox())

	handler := router.New(router.Deps{
		Auth: authctrl.NewController(login, cfg.Session.CookieName, cfg.Session.Secure,
			config.Duration(cfg.Session.TTL)),
		WMS:            wmsctrl.NewController(queries, transactions),
		Sessions:       sessions,
		CookieName:     cfg.Session.CookieName,
		Limiter:        limiter,
		Recoverer:      mw.WithRecover(notifier),
		MetricsHandler: metricsHandler,
	})

	return &App{handler: handler, cache: cacheClient}, nil
}

// Handler retorna o handler HTTP raiz.
func (a *App) Handler() http.Handler { return a.handler }

// Close libera os recursos do app.
func (a *App) Close() error { return a.cache.Close() }
