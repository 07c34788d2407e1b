package tracer

import (
	"context"
	"sync"
)

// NewNoop returns a Tracer that discards every span.
func NewNoop() Tracer {
	return noopTracer{}
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                   {}
func (noopSpan) SetAttributes(...Attribute)  {}
func (noopSpan) AddEvent(string, ...Attribute) {}

// Recorder keeps finished and in-flight spans in memory for assertions.
type Recorder struct {
	mu    sync.Mutex
	spans []*RecordedSpan
}

// RecordedSpan is a snapshot of one span started on a Recorder.
type RecordedSpan struct {
	Name   string
	Attrs  map[string]any
	Events []string
	Err    error
	Ended  bool

	mu *sync.Mutex
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	s := &RecordedSpan{Name: name, Attrs: map[string]any{}, mu: &r.mu}
	for _, a := range attrs {
		s.Attrs[a.Key] = a.Value
	}
	r.mu.Lock()
	r.spans = append(r.spans, s)
	r.mu.Unlock()
	return ctx, s
}

// Spans returns copies of the spans named name, in start order.
func (r *Recorder) Spans(name string) []RecordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RecordedSpan
	for _, s := range r.spans {
		if s.Name == name {
			c := *s
			c.mu = nil
			out = append(out, c)
		}
	}
	return out
}

func (s *RecordedSpan) End(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
	s.Ended = true
}

func (s *RecordedSpan) SetAttributes(attrs ...Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range attrs {
		s.Attrs[a.Key] = a.Value
	}
}

func (s *RecordedSpan) AddEvent(name string, _ ...Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, name)
}

var (
	_ Tracer = noopTracer{}
	_ Tracer = (*Recorder)(nil)
	_ Span   = (*RecordedSpan)(nil)
)
