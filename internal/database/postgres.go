package database

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a keyword/value connection string. Extra options are
// appended in key order so the result is stable.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres configuration requires user and database name")
	}

	pairs := []string{
		"host=" + hostOrDefault(cfg.Host, "localhost"),
		"port=" + strconv.Itoa(portOrDefault(cfg.Port, 5432)),
		"user=" + cfg.User,
		"dbname=" + cfg.Name,
	}
	if cfg.Password != "" {
		pairs = append(pairs, "password="+cfg.Password)
	}

	options := maps.Clone(cfg.Options)
	if options == nil {
		options = map[string]string{}
	}
	if _, ok := options["sslmode"]; !ok {
		options["sslmode"] = "disable"
	}
	for _, key := range slices.Sorted(maps.Keys(options)) {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, options[key]))
	}

	return strings.Join(pairs, " "), nil
}

func hostOrDefault(host, fallback string) string {
	if host = strings.TrimSpace(host); host != "" {
		return host
	}
	return fallback
}

func portOrDefault(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}
