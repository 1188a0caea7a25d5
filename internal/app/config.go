package app

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Env       string
	HTTPAddr  string
	CORSAllow []string

	// RetainEmptyRooms keeps a room in the registry after its last
	// member leaves. Set false to garbage-collect a room once its
	// member set empties.
	RetainEmptyRooms bool

	ChatMaxLen   int
	RateLimitRPM int
}

func LoadConfig() Config {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		RetainEmptyRooms: getEnvBool("RETAIN_EMPTY_ROOMS", true),
	}
	cfg.ChatMaxLen = getEnvInt("CHAT_MAX_LEN", 500)
	cfg.RateLimitRPM = getEnvInt("RATE_LIMIT_RPM", 120)
	// CORS allowlist
	allow := getEnv("CORS_ALLOW", "*")
	cfg.CORSAllow = splitCSV(allow)
	return cfg
}

// getEnv returns the env var or a default
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an int env var with a fallback
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var i int
		_, _ = fmt.Sscanf(v, "%d", &i)
		if i > 0 {
			return i
		}
	}
	return def
}

// getEnvBool accepts true/false/1/0/yes/no, case-insensitive
func getEnvBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

// splitCSV trims and filters a comma-separated list
func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
