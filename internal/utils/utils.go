package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// ContainsFold reports whether list contains s, compared case-insensitively
// with surrounding whitespace ignored.
func ContainsFold(list []string, s string) bool {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, item := range list {
		if strings.ToLower(strings.TrimSpace(item)) == want {
			return true
		}
	}
	return false
}
