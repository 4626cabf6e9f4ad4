package launcher

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/niedzwiedz/workon/internal/config"
	"github.com/niedzwiedz/workon/internal/terminal"
)

func TestStartupEmitsProjectAndTaskSpans(t *testing.T) {
	recorder := installSpanRecorder(t)

	supervisor := newTestSupervisor(t, Options{
		Runner: &fakeRunner{startErrors: map[string]error{"broken": errors.New("not found")}},
	})
	project := config.Project{
		Name: "demo",
		Terminals: []config.Task{
			{Workdir: "/tmp", Command: config.Command{"psql", "--password", "hunter2"}},
		},
		Programs: []config.Task{
			{Workdir: "/tmp", Command: config.Command{"broken"}},
		},
	}

	if _, err := supervisor.Startup(context.Background(), project, terminal.Default()); err != nil {
		t.Fatalf("startup: %v", err)
	}

	spans := recorder.Ended()
	startup := findSpan(t, spans, "workon.startup", "")
	attrs := spanAttributes(startup)
	if attrs["project"] != "demo" || attrs["terminal"] != "alacritty" || attrs["task_count"] != "2" {
		t.Fatalf("startup span attributes = %v", attrs)
	}
	if attrs["aborted"] != "1" {
		t.Fatalf("aborted attribute = %q, want 1", attrs["aborted"])
	}
	if startup.Status().Code != codes.Error {
		t.Fatalf("startup span status = %v, want error", startup.Status().Code)
	}

	terminalSpan := findSpan(t, spans, "workon.task", "terminal")
	terminalAttrs := spanAttributes(terminalSpan)
	if got := terminalAttrs["args_redacted"]; got != "--working-directory /tmp -e psql --password <redacted>" {
		t.Fatalf("args_redacted = %q", got)
	}
	if terminalAttrs["status"] != string(StatusExited) || terminalAttrs["exit_code"] != "0" {
		t.Fatalf("terminal span attributes = %v", terminalAttrs)
	}
	if terminalSpan.Parent().SpanID() != startup.SpanContext().SpanID() {
		t.Fatal("task span must be a child of the startup span")
	}

	programSpan := findSpan(t, spans, "workon.task", "program")
	if programSpan.Status().Code != codes.Error {
		t.Fatalf("aborted task span status = %v, want error", programSpan.Status().Code)
	}
	if len(programSpan.Events()) == 0 {
		t.Fatal("aborted task span must record the launch error")
	}
}

func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	spanRecorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown tracer provider: %v", err)
		}
		otel.SetTracerProvider(previous)
	})

	return spanRecorder
}

func findSpan(t *testing.T, spans []sdktrace.ReadOnlySpan, name string, kind string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range spans {
		if span.Name() != name {
			continue
		}
		if kind != "" && spanAttributes(span)["kind"] != kind {
			continue
		}
		return span
	}
	t.Fatalf("span %q (kind %q) not found among %d spans", name, kind, len(spans))
	return nil
}

func spanAttributes(span sdktrace.ReadOnlySpan) map[string]string {
	out := make(map[string]string, len(span.Attributes()))
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
