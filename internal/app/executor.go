package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// Mutating operations that touch several records run as a five step
// pipeline: Validate → Perform → Verify → Archive → Respond.
// Nothing is persisted before Verify has accepted the performed result,
// so a failure in any earlier step leaves the store untouched.

const instrumentationName = "github.com/jsamuelsen/quotekeeper/internal/app"

// Step names a stage of the pipeline.
type Step string

const (
	StepValidate Step = "validate"
	StepPerform  Step = "perform"
	StepVerify   Step = "verify"
	StepArchive  Step = "archive"
	StepRespond  Step = "respond"
)

// StepError records which stage of which operation failed.
type StepError struct {
	Operation string
	Step      Step
	Cause     error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s step: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap exposes the cause so domain error checks see through the wrapper.
func (e *StepError) Unwrap() error {
	return e.Cause
}

// FailedStep extracts the failed stage from err.
func FailedStep(err error) (Step, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}

	return "", false
}

// Operation describes one pipeline run. I is the input, P what Perform
// produced, V what Verify accepted, and O what the caller receives.
// Nil stages are skipped.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

// Executor runs operations, logging and tracing each stage.
type Executor struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewExecutor creates an executor. A nil logger falls back to slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}
}

// Execute runs op over input.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	ctx, span := exec.tracer.Start(ctx, op.Name)
	defer span.End()

	logger, ok := logging.Lookup(ctx)
	if !ok {
		logger = exec.logger
	}

	logger = logger.With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step Step, err error) (O, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(step))
		logger.WarnContext(ctx, "operation step failed",
			slog.String("step", string(step)),
			slog.Any("error", err),
		)

		return zero, &StepError{Operation: op.Name, Step: step, Cause: err}
	}

	mark := func(step Step) {
		span.AddEvent(string(step), trace.WithAttributes(attribute.String("operation", op.Name)))
		logger.Log(ctx, logging.LevelTrace, "step passed", slog.String("step", string(step)))
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return fail(StepValidate, err)
		}
		mark(StepValidate)
	}

	var performed P
	if op.Perform != nil {
		p, err := op.Perform(ctx, input)
		if err != nil {
			return fail(StepPerform, err)
		}
		performed = p
		mark(StepPerform)
	}

	var verified V
	if op.Verify != nil {
		v, err := op.Verify(ctx, input, performed)
		if err != nil {
			return fail(StepVerify, err)
		}
		verified = v
		mark(StepVerify)
	}

	if op.Archive != nil {
		if err := op.Archive(ctx, input, verified); err != nil {
			return fail(StepArchive, err)
		}
		mark(StepArchive)
	}

	result := zero
	if op.Respond != nil {
		o, err := op.Respond(ctx, input, verified)
		if err != nil {
			return fail(StepRespond, err)
		}
		result = o
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}
