package common

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Dir        string
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// InitLogger sends logrus output to stdout and a rotated file under cfg.Dir.
// An empty Dir logs to stdout only.
func InitLogger(cfg LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	var out io.Writer = os.Stdout
	var logPath string
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return err
		}
		if cfg.File == "" {
			cfg.File = "energy_routing.log"
		}
		logPath = filepath.Join(cfg.Dir, cfg.File)

		fileLogger := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stdout, fileLogger)
	}

	log.SetOutput(out)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(level)

	log.Infof("Logging initialized: file=%s, level=%s, stdout=enabled", logPath, level)
	return nil
}
