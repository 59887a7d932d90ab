package logctx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFromContextDefault(t *testing.T) {
	// A bare context and a nil context both yield a usable logger.
	log := FromContext(context.Background())
	log.Info().Msg("no panic")

	log = FromContext(nil) //nolint:staticcheck
	log.Info().Msg("no panic")
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	log := FromContext(ctx)
	log.Info().Msg("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected log output to contain %q, got %q", "hello", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)

	ctx = WithStr(ctx, "phase", "index")
	ctx = WithInt64(ctx, "ws", 42)
	log := FromContext(ctx)
	log.Info().Msg("fields")

	out := buf.String()
	for _, want := range []string{`"phase":"index"`, `"ws":42`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %s, got %q", want, out)
		}
	}
}
