package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNormalizeOTLPEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		signal   string
		hostport string
		urlPath  string
		insecure bool
		resolved string
		wantErr  bool
	}{
		{"default localhost", "http://localhost:4318", tracesPath, "localhost:4318", "/v1/traces", true, "http://localhost:4318/v1/traces", false},
		{"trailing slash base", "http://collector:4318/", tracesPath, "collector:4318", "/v1/traces", true, "http://collector:4318/v1/traces", false},
		{"already traces path", "http://collector:4318/v1/traces", tracesPath, "collector:4318", "/v1/traces", true, "http://collector:4318/v1/traces", false},
		{"custom base path", "https://otlp.example.com:4318/otlp", tracesPath, "otlp.example.com:4318", "/otlp/v1/traces", false, "https://otlp.example.com:4318/otlp/v1/traces", false},
		{"logs from base", "http://collector:4318", logsPath, "collector:4318", "/v1/logs", true, "http://collector:4318/v1/logs", false},
		{"logs from traces url", "http://collector:4318/v1/traces", logsPath, "collector:4318", "/v1/logs", true, "http://collector:4318/v1/logs", false},
		{"invalid no scheme", "collector:4318", tracesPath, "", "", true, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hp, path, insecure, resolved, err := normalizeOTLPEndpoint(tt.input, tt.signal)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeOTLPEndpoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if hp != tt.hostport {
				t.Errorf("hostport = %q, want %q", hp, tt.hostport)
			}
			if path != tt.urlPath {
				t.Errorf("urlPath = %q, want %q", path, tt.urlPath)
			}
			if insecure != tt.insecure {
				t.Errorf("insecure = %v, want %v", insecure, tt.insecure)
			}
			if resolved != tt.resolved {
				t.Errorf("resolved = %q, want %q", resolved, tt.resolved)
			}
		})
	}
}

func TestInitTelemetry_Disabled(t *testing.T) {
	p, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p)

	_, span := GetForecastTracer().Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInitTelemetry_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := InitTelemetry(context.Background(), TelemetryConfig{
		Enabled:     true,
		Exporter:    ExporterStdout,
		Environment: "test",
		Output:      &buf,
	})
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	_, span := GetForecastTracer().Start(context.Background(), "forecast.generate")
	assert.True(t, span.IsRecording())
	span.SetAttributes(attribute.String("forecast.model", "linear"))
	span.End()

	assert.Nil(t, p.LoggerProvider(), "stdout exporter does not ship logs")

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "forecast.generate")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestInitTelemetry_OTLPInstallsLoggerProvider(t *testing.T) {
	p, err := InitTelemetry(context.Background(), TelemetryConfig{
		Enabled:      true,
		Exporter:     ExporterOTLP,
		OTLPEndpoint: "http://127.0.0.1:4318",
	})
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	assert.NotNil(t, p.LoggerProvider())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestInitTelemetry_UnknownExporter(t *testing.T) {
	_, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown telemetry exporter")
}

func TestInitTelemetry_InvalidOTLPEndpoint(t *testing.T) {
	_, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: true, Exporter: ExporterOTLP, OTLPEndpoint: "collector:4318"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid OTLP endpoint")
}

func TestProviderShutdown_Nil(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}
