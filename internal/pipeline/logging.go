package pipeline

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lgrosjean/baynext-ml/internal/config"
)

// ConfigureLogging sets the global log level, format and file output. The
// log file rotates so long-lived schedules do not fill the disk.
func ConfigureLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if cfg.File != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    20,
			MaxBackups: 3,
		}))
	}
	return nil
}

// stepLogger tags every line of one pipeline stage with the run and step.
func stepLogger(runName, step string) *log.Entry {
	return log.WithFields(log.Fields{
		"run":  runName,
		"step": step,
	})
}
