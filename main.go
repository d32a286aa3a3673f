package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/broadcast"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/camera"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/camera/webcam"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/config"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/database"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/detector"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/feed"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/handlers"
	"github.com/shreebarse12/AI-BASED-ONLINE-EXAM-PROCTORING-SYSTEM/sessions"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	store, err := database.Open(cfg.Database.SessionsPath)
	if err != nil {
		log.Fatalf("Failed to open sessions database: %v", err)
	}
	defer store.Close()
	roster, err := database.OpenRoster(cfg.Database.RosterPath)
	if err != nil {
		log.Fatalf("Failed to open roster: %v", err)
	}
	defer roster.Close()

	var warnings database.WarningStore = store
	if cfg.Database.PostgresURL != "" {
		pg, err := database.OpenPostgres(ctx, cfg.Database.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		warnings = pg
		log.Println("Warnings are stored in postgres")
	}

	// detector
	det, err := detector.Start(ctx, detector.WorkerConfig{
		Command:    cfg.Detector.Command,
		Args:       cfg.Detector.Args,
		Confidence: cfg.Detector.Confidence,
	})
	if err != nil {
		log.Fatalf("Failed to start detector: %v", err)
	}
	defer det.Close()

	// broadcast
	instanceID := uuid.NewString()
	hub := broadcast.NewHub()
	sinks := buildSinks(ctx, cfg, instanceID, hub)
	publisher := broadcast.NewPublisher(hub, instanceID, sinks...)
	defer publisher.Close()

	var openCamera camera.Opener
	switch cfg.Camera.Driver {
	case "synthetic":
		openCamera = camera.SyntheticOpener(640, 480, cfg.Camera.FPS)
	default:
		openCamera = webcam.Opener(cfg.Camera.Device)
	}

	registry := sessions.NewRegistry()
	ttl := time.Duration(cfg.SessionTTLM) * time.Minute
	go registry.RunSweeper(ctx, ttl/12, ttl)

	h := &handlers.Handler{
		Store:      store,
		Warnings:   warnings,
		Roster:     roster,
		Sessions:   registry,
		Feed:       feed.New(warnings),
		Detector:   det,
		Hub:        hub,
		Publisher:  publisher,
		OpenCamera: openCamera,
		Upgrader:   handlers.NewUpgrader(cfg.AllowedOrigins),
	}

	// router
	router := gin.Default()
	h.Register(router)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
		// open streams end with the process
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		log.Printf("Listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	var grpcServer *grpc.Server
	healthServer := health.NewServer()
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.GRPCHealthAddr, err)
		}
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		go func() {
			log.Printf("gRPC health on %s", cfg.GRPCHealthAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Printf("gRPC server stopped: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Println("Shutting down")
	healthServer.Shutdown()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownS)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

// buildSinks connects the optional out-of-process channels. A sink that
// cannot connect is skipped; observers on this instance still get warnings.
func buildSinks(ctx context.Context, cfg *config.Config, instanceID string, hub *broadcast.Hub) []broadcast.Sink {
	var sinks []broadcast.Sink

	if cfg.MQTT.Broker != "" {
		mqttCfg := cfg.MQTT
		mqttCfg.ClientID = mqttCfg.ClientID + "-" + instanceID[:8]
		if s, err := broadcast.NewMQTTSink(mqttCfg); err != nil {
			log.Printf("MQTT disabled: %v", err)
		} else {
			sinks = append(sinks, s)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		if s, err := broadcast.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			log.Printf("Kafka disabled: %v", err)
		} else {
			sinks = append(sinks, s)
		}
	}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Redis relay disabled: %v", err)
			rdb.Close()
		} else {
			relay := broadcast.NewRedisRelay(rdb, cfg.Redis.Channel, instanceID, hub)
			sinks = append(sinks, relay)
			go func() {
				if err := relay.Run(ctx); err != nil {
					log.Printf("Redis relay stopped: %v", err)
				}
			}()
		}
	}
	return sinks
}
