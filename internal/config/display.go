package config

import (
	"os"
	"strconv"
	"time"
)

// DisplayConfig tunes the shared customer display and its handoff
// choreography.
type DisplayConfig struct {
	BaudRate      int
	Columns       int
	WelcomeLine1  string
	WelcomeLine2  string
	FarewellLine1 string
	FarewellLine2 string
	HandoffPause  time.Duration
	EventChannel  string
}

func LoadDisplayConfig() *DisplayConfig {
	return &DisplayConfig{
		BaudRate:      getEnvAsInt("DISPLAY_BAUD_RATE", 9600),
		Columns:       getEnvAsInt("DISPLAY_COLUMNS", 20),
		WelcomeLine1:  getEnv("DISPLAY_WELCOME_LINE1", "WELCOME"),
		WelcomeLine2:  getEnv("DISPLAY_WELCOME_LINE2", ""),
		FarewellLine1: getEnv("DISPLAY_FAREWELL_LINE1", "THANK YOU"),
		FarewellLine2: getEnv("DISPLAY_FAREWELL_LINE2", "SEE YOU SOON"),
		HandoffPause:  getEnvAsDuration("DISPLAY_HANDOFF_PAUSE", 2*time.Second),
		EventChannel:  getEnv("POS_EVENT_CHANNEL", "pos.events"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
