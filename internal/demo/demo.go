// Package demo wires the guard for the example servers from environment
// configuration.
package demo

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JeanGrijp/go-sessionguard/config"
	"github.com/JeanGrijp/go-sessionguard/guard"
	"github.com/JeanGrijp/go-sessionguard/session"
)

// Config is the environment of an example server.
type Config struct {
	Addr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	RedisAddr  string        `env:"REDIS_ADDR"` // empty = in-memory sessions
	RedisDB    int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	Log   config.LogConfig
	Guard guard.Config
}

// App holds what an example server needs.
type App struct {
	Config Config
	Log    zerolog.Logger
	Guard  *guard.Guard

	redis *redis.Client
}

// Setup loads Config and builds the guard over an in-memory or Redis store.
func Setup() (*App, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	log := config.NewLogger(cfg.Log, nil)

	app := &App{Config: cfg, Log: log}

	var store session.Store
	if cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		store = session.NewRedisStore(app.redis, "sessionguard", cfg.SessionTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis session store")
	} else {
		store = session.NewMemoryStore(cfg.SessionTTL)
		log.Info().Msg("using in-memory session store")
	}

	app.Guard = guard.New(store, cfg.Guard,
		guard.WithLogger(log),
		guard.WithMetrics(prometheus.DefaultRegisterer))
	return app, nil
}

// Close releases the guard and the Redis client.
func (a *App) Close() {
	a.Guard.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<body>
{{if .Message}}<p>{{.Message}}</p>{{end}}
<form method="post" action="/transfer">
	{{.Field}}
	<input name="amount" placeholder="amount" />
	<button type="submit">Transfer</button>
</form>
<form method="post" action="/logout">
	{{.Field}}
	<button type="submit">Log out</button>
</form>
</body>
</html>
`))

// RenderPage writes the demo page with the session's token field.
func RenderPage(w io.Writer, s *guard.Session, message string) error {
	if err := page.Execute(w, struct {
		Field   template.HTML
		Message string
	}{s.TokenField(), message}); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
