package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDisabledProvider(t *testing.T) {
	p, err := Init(false, "", nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if p.Enabled() {
		t.Fatalf("expected disabled provider")
	}

	ctx, span := p.Tracer().Start(context.Background(), "noop")
	span.End()
	if _, _, ok := TraceFields(ctx); ok {
		t.Fatalf("no-op spans must not carry trace ids")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	var nilProvider *Provider
	if nilProvider.Enabled() || nilProvider.Tracer() == nil {
		t.Fatalf("nil provider should be disabled with a usable tracer")
	}
}

func TestEnabledProviderExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	p, err := Init(true, "test", &buf)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !p.Enabled() {
		t.Fatalf("expected enabled provider")
	}

	ctx, span := p.Tracer().Start(context.Background(), "portfolioai.test_span")
	traceID, spanID, ok := TraceFields(ctx)
	if !ok || len(traceID) != 32 || len(spanID) != 16 {
		t.Fatalf("unexpected trace fields %q %q %v", traceID, spanID, ok)
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "portfolioai.test_span") || !strings.Contains(out, traceID) {
		t.Fatalf("span not exported: %s", out)
	}
}
