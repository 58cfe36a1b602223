package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cagedesk/internal/core/domain"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Gym      GymConfig
	Staff    StaffConfig
	Schedule ScheduleConfig
	Console  ConsoleConfig
	OTLP     string
	SeedDemo bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql | postgres | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret           string
	SessionTokenDays int
}

// GymConfig holds business identity settings
type GymConfig struct {
	Name          string
	Timezone      string
	Location      *time.Location
	CountryPrefix string
}

// StaffConfig is the raw staff allow-list and policy lists
type StaffConfig struct {
	Roster              map[string]string // phone -> name
	MasterPhone         string
	MonitoredPhones     []string
	CrossBindingBlocked []string
	FallbackSecret      string
}

// ScheduleConfig holds heartbeat and weekly rotation timing
type ScheduleConfig struct {
	HeartbeatSeconds  int
	RotationWeekday   time.Weekday
	RotationHour      int
	RotationMinute    int
	MassLogoutMinute  int
	StaleSessionHours int
}

// ConsoleConfig is read by the console client only
type ConsoleConfig struct {
	APIURL   string
	StateDir string
}

const defaultRoster = "9130368298:Shrikant Sathe,9595107293:Vishwajeet Bhangare,9823733536:Radha Shetty"

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", config.AppMode, config.Database.Driver)
	return config, nil
}

// FromEnv builds a Config from the current environment without touching .env
func FromEnv() (*Config, error) {
	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	db, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}
	gym, err := loadGymConfig()
	if err != nil {
		return nil, err
	}
	schedule, err := loadScheduleConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: db,
		JWT:      loadJWTConfig(appMode),
		Gym:      gym,
		Staff:    loadStaffConfig(),
		Schedule: schedule,
		Console: ConsoleConfig{
			APIURL:   getEnv("CONSOLE_API_URL", "http://localhost:3000/api/v1"),
			StateDir: getEnv("CONSOLE_STATE_DIR", ".cagedesk"),
		},
		OTLP:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SeedDemo: appMode == "dev" && getEnv("SEED_DEMO_MEMBERS", "false") == "true",
	}, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))
	defaultPort := "3306"
	switch driver {
	case "mysql":
	case "postgres":
		defaultPort = "5432"
	case "sqlite":
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", driver)
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "cagedesk"),
		SSLMode:    getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "cagedesk.db"),
	}, nil
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		SessionTokenDays: getInt("SESSION_TOKEN_DAYS", 7),
	}
}

func loadGymConfig() (GymConfig, error) {
	tz := getEnv("GYM_TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return GymConfig{}, fmt.Errorf("invalid GYM_TIMEZONE: '%s': %w", tz, err)
	}
	return GymConfig{
		Name:          getEnv("GYM_NAME", "The Cage MMA Gym & RS Fitness Academy"),
		Timezone:      tz,
		Location:      loc,
		CountryPrefix: getEnv("COUNTRY_PREFIX", "+91"),
	}, nil
}

func loadStaffConfig() StaffConfig {
	return StaffConfig{
		Roster:              parseRoster(getEnv("STAFF_ROSTER", defaultRoster)),
		MasterPhone:         getEnv("MASTER_PHONE", "9595107293"),
		MonitoredPhones:     splitList(getEnv("MONITORED_PHONES", "")),
		CrossBindingBlocked: splitList(getEnv("CROSS_BINDING_BLOCKED", "")),
		FallbackSecret:      getEnv("FALLBACK_SECRET", "959510"),
	}
}

func loadScheduleConfig() (ScheduleConfig, error) {
	weekday := getInt("ROTATION_WEEKDAY", 0)
	if weekday < 0 || weekday > 6 {
		return ScheduleConfig{}, fmt.Errorf("invalid ROTATION_WEEKDAY: %d (must be 0-6)", weekday)
	}
	s := ScheduleConfig{
		HeartbeatSeconds:  getInt("HEARTBEAT_SECONDS", 30),
		RotationWeekday:   time.Weekday(weekday),
		RotationHour:      getInt("ROTATION_HOUR", 5),
		RotationMinute:    getInt("ROTATION_MINUTE", 5),
		MassLogoutMinute:  getInt("MASS_LOGOUT_MINUTE", 0),
		StaleSessionHours: getInt("STALE_SESSION_HOURS", 24),
	}
	if s.RotationHour < 0 || s.RotationHour > 23 {
		return ScheduleConfig{}, fmt.Errorf("invalid ROTATION_HOUR: %d", s.RotationHour)
	}
	if s.RotationMinute < 0 || s.RotationMinute > 59 || s.MassLogoutMinute < 0 || s.MassLogoutMinute > 59 {
		return ScheduleConfig{}, fmt.Errorf("invalid rotation minute")
	}
	return s, nil
}

// parseRoster reads "phone:Name,phone:Name"
func parseRoster(raw string) map[string]string {
	out := map[string]string{}
	for _, entry := range splitList(raw) {
		phone, name, ok := strings.Cut(entry, ":")
		if !ok {
			log.Printf("⚠️ Ignoring malformed STAFF_ROSTER entry: %q", entry)
			continue
		}
		out[strings.TrimSpace(phone)] = strings.TrimSpace(name)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(strings.TrimSpace(getEnv(key, "")))
	if err != nil {
		return defaultValue
	}
	return v
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://desk.thecagemma.in"
	}
	return origins
}

// Roster builds the staff allow-list
func (c *Config) Roster() *domain.Roster {
	return domain.NewRoster(c.Gym.CountryPrefix, c.Staff.Roster, c.Staff.MasterPhone, c.Staff.MonitoredPhones)
}

// RotationSchedule is the weekly secret rotation boundary
func (c *Config) RotationSchedule() domain.WeeklySchedule {
	return domain.WeeklySchedule{
		Weekday:  c.Schedule.RotationWeekday,
		Hour:     c.Schedule.RotationHour,
		Minute:   c.Schedule.RotationMinute,
		Location: c.Gym.Location,
	}
}

// MassLogoutSchedule is the weekly all-sessions logout
func (c *Config) MassLogoutSchedule() domain.WeeklySchedule {
	s := c.RotationSchedule()
	s.Minute = c.Schedule.MassLogoutMinute
	return s
}

// HeartbeatInterval is how often consoles ping their session
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Schedule.HeartbeatSeconds) * time.Second
}

// StaleSessionAfter is how long a silent session survives the sweep
func (c *Config) StaleSessionAfter() time.Duration {
	return time.Duration(c.Schedule.StaleSessionHours) * time.Hour
}
