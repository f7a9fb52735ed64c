// Package agent turns consultation data into prompts for the generative
// language endpoint and turns its replies back into consultation types.
package agent

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"arogya-setu/internal/consultation"
	"arogya-setu/internal/metrics"
)

// AssistantApology is returned by the floating assistant when the endpoint fails.
const AssistantApology = "I'm experiencing technical difficulties. Please try again or consult with a healthcare professional."

// ErrNotConfigured is returned by every call when no generator was supplied.
var ErrNotConfigured = errors.New("agent: generative endpoint is not configured")

// Generator is the one call the agent needs from the endpoint client.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Agent implements consultation.AgentClient.
type Agent struct {
	gen     Generator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ consultation.AgentClient = (*Agent)(nil)

// New builds an agent. A nil generator is allowed: chat calls fail and every
// diagnosis comes from the rule-based fallback.
func New(gen Generator, m *metrics.Metrics, logger *zap.Logger) *Agent {
	return &Agent{gen: gen, metrics: m, logger: logger}
}

func (a *Agent) generate(ctx context.Context, purpose, prompt string) (string, error) {
	if a.gen == nil {
		return "", ErrNotConfigured
	}
	started := time.Now()
	reply, err := a.gen.GenerateContent(ctx, prompt)
	a.metrics.ObserveGeneration(purpose, started, err)
	return reply, err
}

func (a *Agent) ChatWithSymptoms(ctx context.Context, message string, history []string) (string, error) {
	return a.generate(ctx, "chat", BuildChatPrompt(message, history))
}

// GenerateDiagnosis asks the endpoint for a structured diagnosis and falls
// back to the rule-based one on any failure. It never returns an empty result.
func (a *Agent) GenerateDiagnosis(ctx context.Context, in consultation.DiagnosisInput) consultation.Diagnosis {
	reply, err := a.generate(ctx, "diagnosis", BuildDiagnosisPrompt(in))
	if err != nil {
		a.logger.Warn("diagnosis request failed, using fallback", zap.Error(err))
		return FallbackDiagnosis(in)
	}

	d, err := ParseDiagnosis(reply)
	if err != nil {
		a.logger.Warn("diagnosis reply unusable, using fallback",
			zap.Error(err), zap.Int("reply_length", len(reply)))
		return FallbackDiagnosis(in)
	}
	return d
}

// Ask answers a free-form question from the floating assistant.
func (a *Agent) Ask(ctx context.Context, question string) (string, error) {
	return a.generate(ctx, "assistant", BuildAssistantPrompt(question))
}
