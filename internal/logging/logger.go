package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the service logger. Development gets human-readable text,
// every other environment gets JSON lines.
func NewLogger(level string, environment string) *logrus.Logger {
	return NewLoggerWithOutput(level, environment, os.Stdout)
}

// NewLoggerWithOutput is NewLogger writing to out.
func NewLoggerWithOutput(level string, environment string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(ParseLogrusLevel(level))

	if strings.EqualFold(environment, "development") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// ParseLogrusLevel converts string level to logrus.Level
func ParseLogrusLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithComponent creates a logger entry with component context
func WithComponent(logger logrus.FieldLogger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// LogStartup logs application startup information
func LogStartup(logger logrus.FieldLogger, serviceName string, version string, port int) {
	logger.WithFields(logrus.Fields{
		"service": serviceName,
		"version": version,
		"port":    port,
		"event":   "startup",
	}).Info("Application startup")
}

// LogShutdown logs application shutdown information
func LogShutdown(logger logrus.FieldLogger, serviceName string, reason string) {
	logger.WithFields(logrus.Fields{
		"service": serviceName,
		"reason":  reason,
		"event":   "shutdown",
	}).Info("Application shutdown")
}

// LogCacheOperation logs cache operations in a standardized format
func LogCacheOperation(logger logrus.FieldLogger, operation string, key string, hit bool, durationMs int64) {
	logger.WithFields(logrus.Fields{
		"operation":   operation,
		"key":         key,
		"hit":         hit,
		"duration_ms": durationMs,
		"event":       "cache",
	}).Debug("Cache operation")
}

// LogDatabaseOperation logs database operations in a standardized format
func LogDatabaseOperation(logger logrus.FieldLogger, operation string, table string, durationMs int64, rowsAffected int64) {
	logger.WithFields(logrus.Fields{
		"operation":     operation,
		"table":         table,
		"duration_ms":   durationMs,
		"rows_affected": rowsAffected,
		"event":         "database",
	}).Debug("Database operation")
}

// LogAPIRequest logs API requests in a standardized format
func LogAPIRequest(logger logrus.FieldLogger, method string, path string, statusCode int, durationMs int64, requestID string) {
	entry := logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      statusCode,
		"duration_ms": durationMs,
		"request_id":  requestID,
		"event":       "api",
	})

	switch {
	case statusCode >= 500:
		entry.Error("API request")
	case statusCode >= 400:
		entry.Warn("API request")
	default:
		entry.Info("API request")
	}
}

// LogBusinessEvent logs business events in a standardized format
func LogBusinessEvent(logger logrus.FieldLogger, eventType string, details map[string]interface{}) {
	logger.WithFields(logrus.Fields{
		"event_type": eventType,
		"details":    details,
		"event":      "business",
	}).Info("Business event")
}
