package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr           string         `yaml:"addr"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	ShutdownS      int            `yaml:"shutdown_timeout_s"`
	SessionTTLM    int            `yaml:"session_ttl_m"` // idle sessions without a stream are dropped after this
	Database       DatabaseConfig `yaml:"database"`
	Camera         CameraConfig   `yaml:"camera"`
	Detector       DetectorConfig `yaml:"detector"`
	MQTT           MQTTConfig     `yaml:"mqtt"`
	Kafka          KafkaConfig    `yaml:"kafka"`
	Redis          RedisConfig    `yaml:"redis"`
	GRPCHealthAddr string         `yaml:"grpc_health_addr"`
}

type DatabaseConfig struct {
	SessionsPath string `yaml:"sessions_path"` // gorm store: assignments, warnings, results
	RosterPath   string `yaml:"roster_path"`   // students, teachers and exams
	PostgresURL  string `yaml:"postgres_url"`  // when set, warnings are kept in postgres
}

type CameraConfig struct {
	Driver string `yaml:"driver"` // webcam, synthetic
	Device int    `yaml:"device"`
	FPS    int    `yaml:"fps"`
}

type DetectorConfig struct {
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	Confidence float64  `yaml:"confidence"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Load reads an optional .env file and an optional YAML file, then applies
// environment overrides and defaults. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = GetEnvString("PROCTOR_ADDR", cfg.Addr)
	if origins := GetEnvString("PROCTOR_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	cfg.Database.SessionsPath = GetEnvString("PROCTOR_SESSIONS_DB", cfg.Database.SessionsPath)
	cfg.Database.RosterPath = GetEnvString("PROCTOR_ROSTER_DB", cfg.Database.RosterPath)
	cfg.Database.PostgresURL = GetEnvString("POSTGRES_URL", cfg.Database.PostgresURL)
	cfg.Camera.Driver = GetEnvString("PROCTOR_CAMERA_DRIVER", cfg.Camera.Driver)
	cfg.Camera.Device = GetEnvInt("PROCTOR_CAMERA_DEVICE", cfg.Camera.Device)
	cfg.Detector.Command = GetEnvString("PROCTOR_DETECTOR_CMD", cfg.Detector.Command)
	cfg.MQTT.Broker = GetEnvString("MQTT_BROKER", cfg.MQTT.Broker)
	if brokers := GetEnvString("KAFKA_URL", ""); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	cfg.Kafka.Topic = GetEnvString("KAFKA_TOPIC_WARNINGS", cfg.Kafka.Topic)
	cfg.Redis.Addr = GetEnvString("REDIS_ADDR", cfg.Redis.Addr)
	cfg.GRPCHealthAddr = GetEnvString("PROCTOR_GRPC_HEALTH_ADDR", cfg.GRPCHealthAddr)
}

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = ":6969"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.ShutdownS <= 0 {
		cfg.ShutdownS = 5
	}
	if cfg.SessionTTLM <= 0 {
		cfg.SessionTTLM = 180
	}
	if cfg.Database.SessionsPath == "" {
		cfg.Database.SessionsPath = "sessions.db"
	}
	if cfg.Database.RosterPath == "" {
		cfg.Database.RosterPath = "roster.db"
	}
	if cfg.Camera.Driver == "" {
		cfg.Camera.Driver = "webcam"
	}
	if cfg.Camera.FPS <= 0 {
		cfg.Camera.FPS = 30
	}
	if cfg.Detector.Command == "" {
		cfg.Detector.Command = "models/run_detector.sh"
	}
	if cfg.Detector.Confidence == 0 {
		cfg.Detector.Confidence = 0.5
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "proctor/warnings"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "proctor-backend"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "proctor.warnings"
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "proctor:warnings"
	}
}

// Validate checks a fully defaulted configuration.
func Validate(cfg *Config) error {
	if cfg.Addr == "" {
		return errors.New("addr is required")
	}
	switch cfg.Camera.Driver {
	case "webcam", "synthetic":
	default:
		return fmt.Errorf("camera.driver must be webcam or synthetic, got %q", cfg.Camera.Driver)
	}
	if cfg.Camera.Device < 0 {
		return fmt.Errorf("camera.device must be >= 0, got %d", cfg.Camera.Device)
	}
	if cfg.Detector.Confidence <= 0 || cfg.Detector.Confidence > 1 {
		return fmt.Errorf("detector.confidence must be in (0, 1], got %v", cfg.Detector.Confidence)
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}
	return nil
}
