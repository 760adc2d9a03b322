package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string
	JWTSecretKey   string
	ServerPort     int
	LogLevel       slog.Level
	AllowedOrigins []string

	Game GameConfig
	R2   R2Config
}

// GameConfig tunes matches and tournaments.
type GameConfig struct {
	GoalLimit              int
	RoomStartDelay         time.Duration
	TournamentRoundDelay   time.Duration
	TournamentReadyTimeout time.Duration
	TournamentIdleTimeout  time.Duration
	JanitorInterval        time.Duration
	DefaultAvatar          string
}

// R2Config is optional; the tournament archive is disabled when it is empty.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// Enabled reports whether every R2 field is set.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.BucketName != "" && c.PublicBaseURL != ""
}

func (c R2Config) partial() bool {
	return !c.Enabled() && (c.AccountID != "" || c.AccessKeyID != "" || c.SecretAccessKey != "" ||
		c.BucketName != "" || c.PublicBaseURL != "")
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intVar(getenv, "SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	var level slog.Level
	if raw := getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
		}
	}

	origins := []string{"*"}
	if raw := getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	game := GameConfig{DefaultAvatar: getenv("DEFAULT_AVATAR")}
	if game.DefaultAvatar == "" {
		game.DefaultAvatar = "/avatars/default.png"
	}
	if game.GoalLimit, err = intVar(getenv, "GOAL_LIMIT", 5); err != nil {
		return nil, err
	}
	if game.GoalLimit < 1 {
		return nil, fmt.Errorf("GOAL_LIMIT must be positive, got %d", game.GoalLimit)
	}
	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"ROOM_START_DELAY", 3 * time.Second, &game.RoomStartDelay},
		{"TOURNAMENT_ROUND_DELAY", 5 * time.Second, &game.TournamentRoundDelay},
		{"TOURNAMENT_READY_TIMEOUT", time.Minute, &game.TournamentReadyTimeout},
		{"TOURNAMENT_IDLE_TIMEOUT", 30 * time.Minute, &game.TournamentIdleTimeout},
		{"JANITOR_INTERVAL", time.Minute, &game.JanitorInterval},
	}
	for _, d := range durations {
		if *d.dest, err = durationVar(getenv, d.key, d.def); err != nil {
			return nil, err
		}
	}
	if game.JanitorInterval <= 0 {
		return nil, fmt.Errorf("JANITOR_INTERVAL must be positive, got %s", game.JanitorInterval)
	}

	r2 := R2Config{
		AccountID:       getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
	}
	if r2.partial() {
		return nil, fmt.Errorf("R2 configuration is incomplete: set all R2_* variables or none")
	}

	return &Config{
		DatabaseURL:    dbURL,
		JWTSecretKey:   jwtKey,
		ServerPort:     port,
		LogLevel:       level,
		AllowedOrigins: origins,
		Game:           game,
		R2:             r2,
	}, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationVar(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, v)
	}
	return v, nil
}
