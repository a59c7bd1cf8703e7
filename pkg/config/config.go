package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Algorithm AlgorithmConfig
	Export    ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AlgorithmConfig holds the default metaheuristic constants (§6.4) and the
// model-wide defaults used when the loaded data doesn't specify them
// (§4.3's student-per-subgroup assumption, §4.2's lab capacity ceiling).
type AlgorithmConfig struct {
	StudentsPerSubgroup int
	LabRoomCapacityCeiling int

	COAnts       int
	COIterations int
	CORho        float64
	COAlpha      float64
	COBeta       float64
	COQ          float64

	BCEmployed   int
	BCOnlooker   int
	BCIterations int
	BCLimit      int

	PSOParticles      int
	PSOIterations     int
	PSOInertia        float64
	PSOCognitive      float64
	PSOSocial         float64
	PSORepairResidue  bool

	MaxIterationsPerRun int
	GenerationTimeout   time.Duration
}

// ExportConfig controls where generated timetable PDF/CSV artifacts land.
type ExportConfig struct {
	OutputDir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Algorithm = AlgorithmConfig{
		StudentsPerSubgroup:    v.GetInt("STUDENTS_PER_SUBGROUP"),
		LabRoomCapacityCeiling: v.GetInt("LAB_ROOM_CAPACITY_CEILING"),

		COAnts:       v.GetInt("CO_ANTS"),
		COIterations: v.GetInt("CO_ITERATIONS"),
		CORho:        v.GetFloat64("CO_RHO"),
		COAlpha:      v.GetFloat64("CO_ALPHA"),
		COBeta:       v.GetFloat64("CO_BETA"),
		COQ:          v.GetFloat64("CO_Q"),

		BCEmployed:   v.GetInt("BC_EMPLOYED"),
		BCOnlooker:   v.GetInt("BC_ONLOOKER"),
		BCIterations: v.GetInt("BC_ITERATIONS"),
		BCLimit:      v.GetInt("BC_LIMIT"),

		PSOParticles:     v.GetInt("PSO_PARTICLES"),
		PSOIterations:    v.GetInt("PSO_ITERATIONS"),
		PSOInertia:       v.GetFloat64("PSO_INERTIA"),
		PSOCognitive:     v.GetFloat64("PSO_COGNITIVE"),
		PSOSocial:        v.GetFloat64("PSO_SOCIAL"),
		PSORepairResidue: v.GetBool("PSO_REPAIR_RESIDUE"),

		MaxIterationsPerRun: v.GetInt("MAX_ITERATIONS_PER_RUN"),
		GenerationTimeout:   parseDuration(v.GetString("GENERATION_TIMEOUT"), 5*time.Minute),
	}

	cfg.Export = ExportConfig{
		OutputDir: v.GetString("EXPORT_OUTPUT_DIR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "timetable_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STUDENTS_PER_SUBGROUP", 40)
	v.SetDefault("LAB_ROOM_CAPACITY_CEILING", 60)

	v.SetDefault("CO_ANTS", 60)
	v.SetDefault("CO_ITERATIONS", 10)
	v.SetDefault("CO_RHO", 0.5)
	v.SetDefault("CO_ALPHA", 1.0)
	v.SetDefault("CO_BETA", 2.0)
	v.SetDefault("CO_Q", 100.0)

	v.SetDefault("BC_EMPLOYED", 30)
	v.SetDefault("BC_ONLOOKER", 30)
	v.SetDefault("BC_ITERATIONS", 10)
	v.SetDefault("BC_LIMIT", 5)

	v.SetDefault("PSO_PARTICLES", 60)
	v.SetDefault("PSO_ITERATIONS", 10)
	v.SetDefault("PSO_INERTIA", 0.5)
	v.SetDefault("PSO_COGNITIVE", 1.5)
	v.SetDefault("PSO_SOCIAL", 2.0)
	v.SetDefault("PSO_REPAIR_RESIDUE", true)

	v.SetDefault("MAX_ITERATIONS_PER_RUN", 10)
	v.SetDefault("GENERATION_TIMEOUT", "5m")

	v.SetDefault("EXPORT_OUTPUT_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
