package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Payment  *Payment
	Events   *Events
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel       string `env:"LOG_LEVEL"`
	Mode           string
	TransitionMode string `env:"TRANSITION_MODE"`
	AllowGuest     bool   `env:"ALLOW_GUEST"`
}

type Database struct {
	DSN string `env:"DATABASE_URI"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Payment struct {
	HostString string `env:"PAYMENT_GATEWAY_ADDRESS"`
	Currency   string `env:"PAYMENT_CURRENCY"`
}

type Events struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var payment Payment
	var events Events
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&payment.HostString, "p", "", "Payment gateway address")
	flag.StringVar(&payment.Currency, "c", "INR", "Payment currency")
	flag.StringVar(&events.URL, "q", "", "AMQP broker URL")
	flag.StringVar(&events.Exchange, "e", "savorsave.expenses", "AMQP exchange for change events")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.StringVar(&app.TransitionMode, "t", "strict", "Order transition guard: strict / permissive")
	flag.BoolVar(&app.AllowGuest, "g", true, "Allow anonymous guest sessions")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&payment)
	if err != nil {
		return nil, fmt.Errorf("error parsing payment config: %w", err)
	}
	err = env.Parse(&events)
	if err != nil {
		return nil, fmt.Errorf("error parsing events config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Payment:  &payment,
		Events:   &events,
		App:      &app,
	}

	return &config, nil
}
