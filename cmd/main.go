package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "weather_relay/docs"
	"weather_relay/internal/ai"
	"weather_relay/internal/config"
	"weather_relay/internal/handlers"
	"weather_relay/internal/line"
	"weather_relay/internal/logger"
	"weather_relay/internal/metrics"
	"weather_relay/internal/mqttingest"
	"weather_relay/internal/publisher"
	"weather_relay/internal/repository"
	"weather_relay/internal/repository/db"
	"weather_relay/internal/server"
	"weather_relay/internal/service"
)

//go:generate swag init -d .. -g cmd/main.go -o ../docs

const shutdownTimeout = 10 * time.Second

// @title        Weather relay API
// @version      1.0
// @description  Sensor ingest, chat webhook and operator endpoints.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml + env
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)

	// open DB
	sqlDB, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	classifiers, err := cfg.ClassifierSet()
	if err != nil {
		log.Fatalw("invalid classifier tables", "err", err)
	}
	assistantClient, err := ai.New(ai.Options{
		Provider: cfg.AI.Provider,
		BaseURL:  cfg.AI.BaseURL,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Timeout:  cfg.AI.Timeout,
	})
	if err != nil {
		log.Fatalw("failed to init ai client", "err", err)
	}
	if cfg.Line.ChannelToken == "" {
		log.Warnw("line.channel_token is empty; pushes and replies will be rejected")
	}
	messenger := line.NewClient(line.Options{
		APIBase:      cfg.Line.APIBase,
		ChannelToken: cfg.Line.ChannelToken,
		Timeout:      cfg.Line.Timeout,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	sinks := []service.ReadingSink{m}

	var kafkaPub *publisher.Kafka
	if cfg.Kafka.Enabled {
		kafkaPub, err = publisher.NewKafka(publisher.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic},
			log.Component("kafka"))
		if err != nil {
			log.Fatalw("failed to init kafka publisher", "err", err)
		}
		// own context: Close drains the queue before Run returns
		go kafkaPub.Run(context.Background())
		sinks = append(sinks, kafkaPub)
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(cfg, repos, service.Deps{
		Classifier: classifiers,
		Messenger:  messenger,
		AI:         assistantClient,
		Sinks:      sinks,
		Recorder:   m,
		Log:        log,
	})

	go services.Scheduler.Run(ctx, cfg.Scheduler.Tick)

	var sub *mqttingest.Subscriber
	if cfg.MQTT.Enabled {
		sub = mqttingest.New(mqttingest.Options{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		}, services.Readings, log.Component("mqtt"))
		if err := sub.Start(); err != nil {
			log.Fatalw("failed to connect to mqtt broker", "err", err, "broker", cfg.MQTT.Broker)
		}
	}

	apiHandler := handlers.NewHandler(services, log,
		handlers.WithChannelSecret(cfg.Line.ChannelSecret),
		handlers.WithMetrics(m.Handler()),
	)

	// start HTTP server
	srv := server.New(server.DefaultOptions())
	runHTTPServer(srv, cfg.Port, apiHandler, log)
	log.Infow("weather relay started", "port", cfg.Port, "scheduler_mode", cfg.Scheduler.Mode,
		"ai_provider", cfg.AI.Provider, "mqtt", cfg.MQTT.Enabled, "kafka", cfg.Kafka.Enabled)

	waitForShutdown(cancel, srv, log)

	// no new events arrive once the server is down
	services.Webhook.Wait()
	if sub != nil {
		sub.Stop()
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Errorw("failed to close kafka publisher", "err", err)
		}
	}
	log.Infow("shutdown complete")
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.DB.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return db.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
