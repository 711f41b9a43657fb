package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/pkg/config"
)

type stubModel struct {
	reply string
	err   error
	delay time.Duration
}

func (s *stubModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestNew_NoKeyReturnsNil(t *testing.T) {
	gen, err := New(context.Background(), config.LLMConfig{Provider: "gemini"}, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Nil(t, gen)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "mystery", APIKey: "k"}, zap.NewNop(), nil)
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	m := metrics.New()
	gen := Wrap(&stubModel{reply: "hello"}, "stub", time.Second, zap.NewNop(), m)

	got, err := gen.Generate(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("ok")))
}

func TestGenerate_Error(t *testing.T) {
	m := metrics.New()
	gen := Wrap(&stubModel{err: errors.New("quota exceeded")}, "stub", time.Second, zap.NewNop(), m)

	_, err := gen.Generate(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("error")))
}

func TestGenerate_Timeout(t *testing.T) {
	gen := Wrap(&stubModel{reply: "late", delay: time.Second}, "stub", 20*time.Millisecond, zap.NewNop(), nil)

	_, err := gen.Generate(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"inline fence", "```json {\"a\":1}```", `{"a":1}`},
		{"svg fence", "```svg\n<svg></svg>\n```", "<svg></svg>"},
		{"surrounding whitespace", "  \n```json\n[]\n```\n ", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}
