package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func bufLogger() (*bytes.Buffer, zerolog.Logger) {
	var buf bytes.Buffer
	return &buf, zerolog.New(&buf).Level(zerolog.DebugLevel)
}

func TestContextLoggerRoundTrip(t *testing.T) {
	buf, logger := bufLogger()

	ctx := WithLogger(context.Background(), logger)
	ctxLogger := FromContext(ctx)
	ctxLogger.Info().Msg("through context")

	if !strings.Contains(buf.String(), "through context") {
		t.Errorf("context logger output missing, got %q", buf.String())
	}
}

func TestFromContextWithoutLoggerIsSilent(t *testing.T) {
	// Must not panic and must not write anywhere.
	logger := FromContext(context.Background())
	logger.Error().Msg("dropped")
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name string
		log  func(zerolog.Logger)
		want []string
	}{
		{
			"order",
			func(l zerolog.Logger) { LogOrder(l, "005930", "BUY", "MARKET", 3, 70000) },
			[]string{`"event":"order"`, `"stock_id":"005930"`, `"side":"BUY"`, `"quantity":3`},
		},
		{
			"scenario",
			func(l zerolog.Logger) { LogScenario(l, "005930", "ENTER", 8, 6) },
			[]string{`"event":"scenario"`, `"decision":"ENTER"`, `"score":8`, `"min_score":6`},
		},
		{
			"sell decision",
			func(l zerolog.Logger) { LogSellDecision(l, "005930", true, "STOP_LOSS", 1.0) },
			[]string{`"event":"sell_decision"`, `"should_sell":true`, `"reason":"STOP_LOSS"`},
		},
		{
			"skip",
			func(l zerolog.Logger) { LogSkip(l, "005930", "SLOTS_FULL") },
			[]string{`"event":"skip"`, `"reason":"SLOTS_FULL"`, `"stock_id":"005930"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, logger := bufLogger()
			tt.log(logger)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output %q missing %q", buf.String(), want)
				}
			}
		})
	}
}

func TestWithStock(t *testing.T) {
	buf, logger := bufLogger()
	stockLogger := WithStock(logger, "035720")
	stockLogger.Info().Msg("tagged")
	if !strings.Contains(buf.String(), `"stock_id":"035720"`) {
		t.Errorf("output %q missing stock_id field", buf.String())
	}
}
