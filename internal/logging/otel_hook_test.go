package logging

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type exportedRecord struct {
	body     string
	severity otellog.Severity
	attrs    map[string]string
}

type recordingExporter struct {
	mu      sync.Mutex
	records []exportedRecord
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		rec := exportedRecord{
			body:     r.Body().AsString(),
			severity: r.Severity(),
			attrs:    map[string]string{},
		}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			rec.attrs[kv.Key] = kv.Value.String()
			return true
		})
		e.records = append(e.records, rec)
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) all() []exportedRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]exportedRecord(nil), e.records...)
}

func newHookedLogger(t *testing.T) (*logrus.Logger, *recordingExporter) {
	t.Helper()
	exporter := &recordingExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	logger := NewLoggerWithOutput("debug", "production", &buf)
	logger.AddHook(NewOTLPHook(provider.Logger("pricecast")))
	return logger, exporter
}

func TestOTLPHook_ForwardsEntries(t *testing.T) {
	logger, exporter := newHookedLogger(t)

	logger.WithFields(logrus.Fields{
		"article": "12345678",
		"updated": 3,
		"cached":  true,
	}).WithError(errors.New("page not found")).Warn("Price update finished with errors")

	records := exporter.all()
	require.Len(t, records, 1)
	assert.Equal(t, "Price update finished with errors", records[0].body)
	assert.Equal(t, otellog.SeverityWarn, records[0].severity)
	assert.Equal(t, "12345678", records[0].attrs["article"])
	assert.Equal(t, "3", records[0].attrs["updated"])
	assert.Equal(t, "true", records[0].attrs["cached"])
	assert.Equal(t, "page not found", records[0].attrs["error"])
}

func TestOTLPHook_SkipsDebug(t *testing.T) {
	logger, exporter := newHookedLogger(t)

	logger.Debug("cache miss")
	logger.Info("startup")

	records := exporter.all()
	require.Len(t, records, 1)
	assert.Equal(t, "startup", records[0].body)
	assert.Equal(t, otellog.SeverityInfo, records[0].severity)
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, otellog.SeverityFatal, severityFor(logrus.PanicLevel))
	assert.Equal(t, otellog.SeverityError, severityFor(logrus.ErrorLevel))
	assert.Equal(t, otellog.SeverityDebug, severityFor(logrus.DebugLevel))
	assert.Equal(t, otellog.SeverityTrace, severityFor(logrus.TraceLevel))
}
