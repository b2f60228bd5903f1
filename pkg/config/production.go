package config

import (
	"os"
	"strconv"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.DatabaseFilePath = os.Getenv("DATABASE_FILE_PATH")
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = "/data/kasho.sqlite"
	}

	// An empty secret would make every signed token forgeable, so there is no
	// production fallback.
	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	cfg.ServerHost = "0.0.0.0"
}
