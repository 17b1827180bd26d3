// Package prompts turns a user's recent drafts into suggested writing
// prompts with one request to a text-generation service.
package prompts

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks github.com/dmitrijs2005/gophjournal/internal/client/prompts Generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/client/llm"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

const (
	// MinSources is the fewest drafts a generation request is built from.
	MinSources = 3
	// DefaultExpectedCount is how many prompts a reply must contain.
	DefaultExpectedCount = 5

	MsgNotEnoughContent = "Write at least three entries to get personalized prompts."
	MsgGenerationFailed = "Failed to generate prompts. Please try again."
)

var ErrNotEnoughContent = errors.New("not enough content")

// Generator is the text-generation service. *llm.Client implements it.
type Generator interface {
	ChatJSON(ctx context.Context, messages []llm.ChatMessage) (string, error)
}

// Result is what the prompts screen renders: either Prompts, or a Message
// explaining why there are none.
type Result struct {
	Prompts []string
	Message string
}

type Option func(*Orchestrator)

// WithExpectedCount sets how many prompts are requested and required.
func WithExpectedCount(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.expected = n
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

type Orchestrator struct {
	gen      Generator
	expected int
	log      logging.Logger
}

func New(gen Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{gen: gen, expected: DefaultExpectedCount, log: logging.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate asks for prompts inspired by drafts. Below MinSources it returns
// MsgNotEnoughContent and ErrNotEnoughContent without contacting the
// generator. Any transport failure or a reply of the wrong shape yields
// MsgGenerationFailed together with the cause; replies are never partially
// used and never retried.
func (o *Orchestrator) Generate(ctx context.Context, drafts []models.Draft) (Result, error) {
	if len(drafts) < MinSources {
		return Result{Message: MsgNotEnoughContent}, ErrNotEnoughContent
	}

	reply, err := o.gen.ChatJSON(ctx, o.messages(drafts))
	if err != nil {
		o.log.Error(ctx, "prompt generation failed", "error", err)
		return Result{Message: MsgGenerationFailed}, err
	}

	prompts, err := parseReply(reply, o.expected)
	if err != nil {
		o.log.Warn(ctx, "prompt reply rejected", "error", err)
		return Result{Message: MsgGenerationFailed}, err
	}

	return Result{Prompts: prompts}, nil
}

func (o *Orchestrator) messages(drafts []models.Draft) []llm.ChatMessage {
	system := fmt.Sprintf(
		"You suggest journaling prompts. Reply with a JSON object that has exactly one key, "+
			"\"prompts\", whose value is an array of exactly %d short prompt strings. "+
			"Do not include any other text.", o.expected)

	return []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: Aggregate(drafts)},
	}
}

// Aggregate renders drafts as one numbered plain-text block.
func Aggregate(drafts []models.Draft) string {
	var b strings.Builder
	b.WriteString("Here are my recent journal entries:\n")
	for i, d := range drafts {
		fmt.Fprintf(&b, "\nEntry %d:\n%s\n", i+1, strings.TrimSpace(models.PlainText(d.Content)))
	}
	return b.String()
}

// parseReply accepts only an object with a single key whose value is an
// array of exactly want non-empty strings.
func parseReply(reply string, want int) ([]string, error) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader([]byte(strings.TrimSpace(reply))))
	if err := dec.Decode(&obj); err != nil {
		return nil, common.Wrap(common.ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", common.ErrMalformed)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("%w: expected one key, got %d", common.ErrMalformed, len(obj))
	}

	var items []string
	for _, raw := range obj {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, common.Wrap(common.ErrMalformed, err)
		}
	}
	if len(items) != want {
		return nil, fmt.Errorf("%w: expected %d prompts, got %d", common.ErrMalformed, want, len(items))
	}

	out := make([]string, 0, want)
	for i, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("%w: prompt %d is empty", common.ErrMalformed, i+1)
		}
		out = append(out, s)
	}
	return out, nil
}
