/* Copyright (c) 2025 AgileFlow contributors
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	TZ       string
	HTTPAddr string

	// DBDSN enables the optional snapshot persistence adapter when non-empty.
	DBDSN string

	OpenAIKey     string
	OpenAIModel   string
	OpenAITimeout time.Duration

	DigestCron  string
	HTTPTimeout time.Duration

	// SeedDemo loads the demo workspace fixture on startup.
	SeedDemo bool

	IssueKeyPrefix string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func dur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		TZ:       getenv("APP_TZ", "UTC"),
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBDSN: getenv("DB_DSN", ""),

		OpenAIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAITimeout: dur("OPENAI_TIMEOUT", 15*time.Second),

		DigestCron:  getenv("CRON_SPEC", "0 9 * * MON-FRI"),
		HTTPTimeout: dur("HTTP_TIMEOUT", 15*time.Second),

		SeedDemo: boolean("SEED_DEMO", true),

		IssueKeyPrefix: getenv("ISSUE_KEY_PREFIX", "AF"),
	}
	if loc, err := time.LoadLocation(cfg.TZ); err == nil {
		time.Local = loc
	}
	return cfg
}
