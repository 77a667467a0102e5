package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/session"
)

// ErrTooManyAttempts is returned when a field keeps being rejected.
var ErrTooManyAttempts = errors.New("too many rejected answers")

const maxAttempts = 3

// FlowEngine is the part of the engine the wizard drives.
type FlowEngine interface {
	StartFlowFor(ctx context.Context, featureID, target string) (formwork.FlowSchema, error)
	UpdateFlowState(ctx context.Context, id, key string, value any, version *int) (formwork.FlowSchema, error)
	CompleteFlow(ctx context.Context, id string) (session.Completion, error)
	CancelFlow(ctx context.Context, id string) error
}

// Wizard walks a flow on a terminal, asking for each offered field once
// in presentation order and completing the flow when none is left.
type Wizard struct {
	engine FlowEngine
	in     *bufio.Reader
	out    io.Writer
	render tui.Renderer
	logger *slog.Logger
}

// WizardOption configures a Wizard.
type WizardOption func(*Wizard)

// WithRenderer renders field prompts as markdown.
func WithRenderer(r tui.Renderer) WizardOption {
	return func(w *Wizard) { w.render = r }
}

// WithWizardLogger sets the logger.
func WithWizardLogger(logger *slog.Logger) WizardOption {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWizard creates a wizard reading answers from in and writing prompts
// to out.
func NewWizard(engine FlowEngine, in io.Reader, out io.Writer, opts ...WizardOption) *Wizard {
	w := &Wizard{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts featureID against target and drives the flow to completion.
// The flow is cancelled when the wizard stops early.
func (w *Wizard) Run(ctx context.Context, featureID, target string) (session.Completion, error) {
	fs, err := w.engine.StartFlowFor(ctx, featureID, target)
	if err != nil {
		return session.Completion{}, err
	}
	w.logger.Debug("Wizard started", "flow_id", fs.FlowID, "feature", featureID)

	done, err := w.walk(ctx, fs)
	if err != nil {
		if cerr := w.engine.CancelFlow(context.WithoutCancel(ctx), fs.FlowID); cerr != nil {
			w.logger.Warn("Cancel after failed wizard", "flow_id", fs.FlowID, "err", cerr)
		}
		return session.Completion{}, err
	}
	return done, nil
}

func (w *Wizard) walk(ctx context.Context, fs formwork.FlowSchema) (session.Completion, error) {
	answered := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return session.Completion{}, err
		}

		field, ok := nextField(fs.Schema, answered)
		if !ok {
			break
		}

		var next formwork.FlowSchema
		for attempt := 1; ; attempt++ {
			if attempt > maxAttempts {
				return session.Completion{}, fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Key)
			}
			value, err := w.ask(field)
			if err != nil {
				return session.Completion{}, err
			}
			if value == nil {
				continue
			}

			next, err = w.engine.UpdateFlowState(ctx, fs.FlowID, field.Key, value, &fs.Version)
			if errors.Is(err, formwork.ErrInvalidField) || errors.Is(err, formwork.ErrInvalidInput) {
				printSystemMessage(w.out, "%v", err)
				continue
			}
			if err != nil {
				return session.Completion{}, err
			}
			break
		}
		answered[field.Key] = true
		fs = next
	}

	done, err := w.engine.CompleteFlow(ctx, fs.FlowID)
	if err != nil {
		for _, verr := range schema.ValidationErrors(err) {
			printSystemMessage(w.out, "%v", verr)
		}
		return done, err
	}
	if done.HasResult {
		printSystemMessage(w.out, "Result: %s", done.Result)
	} else {
		printSystemMessage(w.out, "Done.")
	}
	return done, nil
}

// nextField returns the first field in presentation order not answered yet.
func nextField(s schema.Schema, answered map[string]bool) (schema.Field, bool) {
	for _, f := range s.Ordered() {
		if !answered[f.Key] {
			return f, true
		}
	}
	return schema.Field{}, false
}

// ask prompts for field and returns the value to bind, or nil when the
// answer was rejected locally.
func (w *Wizard) ask(field schema.Field) (any, error) {
	w.prompt(field)

	line, err := w.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return nil, err
	}
	answer := strings.TrimSpace(line)

	if answer == "" {
		switch {
		case field.DefaultValue != nil:
			return *field.DefaultValue, nil
		case field.Required:
			printSystemMessage(w.out, "A value is required.")
			return nil, nil
		}
		return "", nil
	}

	if len(field.ValidOptions) > 0 {
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(field.ValidOptions) {
			return field.ValidOptions[n-1], nil
		}
		if !slices.Contains(field.ValidOptions, answer) {
			printSystemMessage(w.out, "Choose one of the listed options.")
			return nil, nil
		}
		return answer, nil
	}
	return formwork.DecodeValue(answer), nil
}

func (w *Wizard) prompt(field schema.Field) {
	md := tui.FieldMarkdown(field)
	if w.render != nil {
		if out, err := w.render(md); err == nil {
			md = out
		}
	}
	fmt.Fprint(w.out, md)
	fmt.Fprint(w.out, "> ")
}
