package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"auction-harvester/utils"
)

const (
	DefaultLocality        = "Rivas Vaciamadrid"
	DefaultHarvestSchedule = "0 9 * * *"
	DefaultHarvestTimezone = "Europe/Madrid"
	DefaultLockName        = "auction_harvest"
)

// HarvestSettings is the harvest configuration read from the environment.
type HarvestSettings struct {
	BaseURL          string
	Locality         string
	Schedule         string
	Timezone         string
	PolitenessDelay  time.Duration
	MaxPages         int
	RequestTimeout   time.Duration
	ExportDir        string
	ExportEnabled    bool
	LockName         string
	NotifyEnabled    bool
	NotifyRecipients []string
}

func LoadHarvestSettings() HarvestSettings {
	s := HarvestSettings{
		BaseURL:         strings.TrimSpace(os.Getenv("HARVEST_BASE_URL")),
		Locality:        utils.SanitizeInput(EnvString("HARVEST_LOCALITY", DefaultLocality)),
		Schedule:        EnvString("HARVEST_SCHEDULE", DefaultHarvestSchedule),
		Timezone:        EnvString("HARVEST_TIMEZONE", DefaultHarvestTimezone),
		PolitenessDelay: EnvDuration("HARVEST_POLITENESS_DELAY", 500*time.Millisecond),
		MaxPages:        EnvInt("HARVEST_MAX_PAGES", 200),
		RequestTimeout:  EnvDuration("HARVEST_REQUEST_TIMEOUT", 30*time.Second),
		ExportDir:       EnvString("HARVEST_EXPORT_DIR", "./data"),
		ExportEnabled:   EnvBool("HARVEST_EXPORT_ENABLED", true),
		LockName:        EnvString("HARVEST_LOCK_NAME", DefaultLockName),
		NotifyEnabled:   EnvBool("EMAIL_NOTIFICATIONS", false),
	}
	if s.Locality == "" {
		s.Locality = DefaultLocality
	}
	// HARVEST_SCHEDULE=off disables scheduled runs
	if strings.EqualFold(s.Schedule, "off") {
		s.Schedule = ""
	}
	if s.MaxPages <= 0 {
		s.MaxPages = 200
	}

	valid, rejected := utils.ParseRecipients(os.Getenv("NOTIFY_EMAIL"))
	if len(rejected) > 0 {
		slog.Warn("ignoring invalid NOTIFY_EMAIL entries", "rejected", rejected)
	}
	s.NotifyRecipients = valid
	return s
}

func EnvString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func EnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer setting, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func EnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean setting, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return b
}

// EnvDuration accepts Go durations ("500ms") and bare milliseconds ("500").
func EnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		slog.Warn("invalid duration setting, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
