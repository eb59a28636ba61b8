package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolabel/internal/domain"
)

var (
	errTransient = errors.New("503")
	errFatal     = errors.New("401")
)

type flaky struct {
	failures []error
	calls    int
}

func (f *flaky) Name() string { return "flaky" }

func (f *flaky) Generate(context.Context, domain.GenerateRequest) (domain.GenerateResponse, error) {
	f.calls++
	if f.calls <= len(f.failures) {
		return domain.GenerateResponse{}, f.failures[f.calls-1]
	}
	return domain.GenerateResponse{Text: "ok"}, nil
}

func fast(n uint64) Config {
	return Config{
		MaxRetries:      n,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Retryable:       func(err error) bool { return errors.Is(err, errTransient) },
	}
}

func TestWrapDisabled(t *testing.T) {
	next := &flaky{}
	assert.Same(t, domain.Generator(next), Wrap(next, Config{}, nil))
}

func TestRetriesTransientErrors(t *testing.T) {
	next := &flaky{failures: []error{errTransient, errTransient}}
	g := Wrap(next, fast(3), nil)

	resp, err := g.Generate(context.Background(), domain.GenerateRequest{})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, "flaky", g.Name())
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	next := &flaky{failures: []error{errTransient, errTransient, errTransient}}

	_, err := Wrap(next, fast(2), nil).Generate(context.Background(), domain.GenerateRequest{})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, next.calls)
}

func TestDoesNotRetryPermanentErrors(t *testing.T) {
	next := &flaky{failures: []error{errFatal}}

	_, err := Wrap(next, fast(5), nil).Generate(context.Background(), domain.GenerateRequest{})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, next.calls)
}
