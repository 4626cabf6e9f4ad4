package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type fakeExporter struct {
	exported []sdktrace.ReadOnlySpan
	shutdown bool
}

func (f *fakeExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	f.exported = append(f.exported, spans...)
	return nil
}

func (f *fakeExporter) Shutdown(_ context.Context) error {
	f.shutdown = true
	return nil
}

func TestInitExportsToEndpointWithResourceAttributes(t *testing.T) {
	originalVersion := ServiceVersion
	ServiceVersion = "v1.2.3-test"
	defer func() { ServiceVersion = originalVersion }()

	originalProvider := otel.GetTracerProvider()
	defer otel.SetTracerProvider(originalProvider)

	fake := &fakeExporter{}
	capturedEndpoint := ""
	restoreFactory := setExporterFactoryForTest(func(_ context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		capturedEndpoint = endpoint
		return fake, nil
	})
	defer restoreFactory()

	shutdown, err := Init(context.Background(), " http://collector:4318 ")
	if err != nil {
		t.Fatalf("init telemetry: %v", err)
	}
	if capturedEndpoint != "http://collector:4318" {
		t.Fatalf("endpoint = %q, want collector endpoint", capturedEndpoint)
	}

	_, span := otel.Tracer("telemetry-test").Start(context.Background(), "workon.startup")
	span.End()

	shutdown()
	shutdown()
	if !fake.shutdown {
		t.Fatal("expected exporter shutdown on telemetry shutdown")
	}
	if len(fake.exported) == 0 {
		t.Fatal("expected at least one exported span")
	}

	attrs := fake.exported[0].Resource().Attributes()
	assertResourceAttribute(t, attrs, "service.name", ServiceName)
	assertResourceAttribute(t, attrs, "service.version", "v1.2.3-test")
}

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	restoreFactory := setExporterFactoryForTest(func(_ context.Context, _ string) (sdktrace.SpanExporter, error) {
		t.Fatal("exporter factory must not be called without an endpoint")
		return nil, nil
	})
	defer restoreFactory()

	shutdown, err := Init(context.Background(), "  ")
	if err != nil {
		t.Fatalf("init telemetry: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must not be nil")
	}
	shutdown()
}

func TestInitReturnsExporterErrors(t *testing.T) {
	restoreFactory := setExporterFactoryForTest(func(_ context.Context, _ string) (sdktrace.SpanExporter, error) {
		return nil, errors.New("dial failed")
	})
	defer restoreFactory()

	shutdown, err := Init(context.Background(), "http://collector:4318")
	if err == nil {
		t.Fatal("expected exporter error")
	}
	if shutdown != nil {
		t.Fatal("shutdown must be nil when init fails")
	}
}

func TestResolveEndpointPrecedence(t *testing.T) {
	env := map[string]string{envEndpoint: "http://env:4318"}
	getenv := func(key string) string { return env[key] }

	if got := ResolveEndpoint("http://config:4318", getenv); got != "http://config:4318" {
		t.Fatalf("endpoint = %q, want config value", got)
	}
	if got := ResolveEndpoint("", getenv); got != "http://env:4318" {
		t.Fatalf("endpoint = %q, want env value", got)
	}
	if got := ResolveEndpoint("", nil); got != "" {
		t.Fatalf("endpoint = %q, want empty", got)
	}
}

func TestTLSConfigFromCertificateRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if _, err := tlsConfigFromCertificate(path); err == nil {
		t.Fatal("expected parse error for invalid certificate")
	}
	if _, err := tlsConfigFromCertificate(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Fatal("expected read error for missing certificate")
	}
}

func TestBatchConfigConstants(t *testing.T) {
	if BatchSize != 512 {
		t.Fatalf("BatchSize = %d, want 512", BatchSize)
	}
	if BatchTimeout != 5*time.Second {
		t.Fatalf("BatchTimeout = %s, want 5s", BatchTimeout)
	}
}

func assertResourceAttribute(t *testing.T, attrs []attribute.KeyValue, key, want string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != want {
				t.Fatalf("resource attr %s = %q, want %q", key, attr.Value.AsString(), want)
			}
			return
		}
	}
	t.Fatalf("resource attribute %q not found", key)
}
