package observability

import (
	"context"
	"testing"
)

func TestInitDisabled(t *testing.T) {
	if err := Init(Config{Enabled: false}); err != nil {
		t.Fatalf("Init with tracing disabled: %v", err)
	}
	if err := Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestInitUnknownExporter(t *testing.T) {
	err := Init(Config{Enabled: true, ExporterType: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unknown exporter type")
	}
}

func TestInitFromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "tsuzuri-test")
	t.Setenv("OTEL_TRACES_EXPORTER", "none")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer abc")

	if err := InitFromEnv(); err != nil {
		t.Fatalf("InitFromEnv: %v", err)
	}

	t.Setenv("OTEL_TRACES_EXPORTER", "carrier-pigeon")
	if err := InitFromEnv(); err == nil {
		t.Fatal("expected error for unknown exporter from env")
	}
}

func TestStartSpanBeforeInit(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "session.submit")
	if ctx == nil {
		t.Fatal("StartSpan returned nil context")
	}
	if span == nil {
		t.Fatal("StartSpan returned nil span")
	}
	span.End()
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"empty", "", nil},
		{"single pair", "Authorization=Bearer abc", map[string]string{"Authorization": "Bearer abc"}},
		{"multiple pairs", "a=1,b=2", map[string]string{"a": "1", "b": "2"}},
		{"missing value dropped", "a=1,broken", map[string]string{"a": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseHeaders(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseHeaders(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseHeaders(%q)[%q] = %q, want %q", tt.input, k, got[k], v)
				}
			}
		})
	}
}
