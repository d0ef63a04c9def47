// Package aitest provides a scripted ai.Generator for tests.
package aitest

import (
	"context"
	"errors"
	"sync"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
)

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Generator replays scripted replies in order and records every request.
type Generator struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []*ai.Request
}

// NewGenerator returns a Generator that answers with replies in order.
func NewGenerator(replies ...Reply) *Generator {
	return &Generator{replies: replies}
}

// Text is a shorthand for a successful reply.
func Text(s string) Reply { return Reply{Text: s} }

// Fail is a shorthand for a failed call.
func Fail(err error) Reply { return Reply{Err: err} }

// Generate implements ai.Generator.
func (g *Generator) Generate(ctx context.Context, req *ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp := *req
	g.Requests = append(g.Requests, &cp)
	if len(g.replies) == 0 {
		return "", errors.New("aitest: no scripted reply left")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.Text, r.Err
}

// Last returns the most recent request, or nil.
func (g *Generator) Last() *ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return nil
	}
	return g.Requests[len(g.Requests)-1]
}

// Calls returns how many requests were made.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}
