package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/resource"
)

// ResourceType is the resource type reported for spawned tools.
const ResourceType = "SpawnedTool"

var (
	// ErrNotRegistered is returned when a tool name is not in the allow-list.
	ErrNotRegistered = errors.New("tool not registered")
	// ErrNotFound is returned when no tracked process has the requested ID.
	ErrNotFound = errors.New("spawned tool not found")
)

// Output is the result of a process run to exit.
type Output struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Combined returns stdout followed by stderr.
func (o Output) Combined() string {
	return o.Stdout + o.Stderr
}

// outputWaitDelay bounds how long a finished process may keep its output
// open through descendants.
const outputWaitDelay = 2 * time.Second

// SpawnedTool is a process started by Execute. It is reaped as soon as it
// exits; its output stays readable from Stdout and Stderr until drained.
type SpawnedTool struct {
	id      ID
	cmd     *exec.Cmd
	started time.Time

	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	done    chan struct{}
	waitErr error
	exited  atomic.Bool
}

// ID returns the tool identifier.
func (t *SpawnedTool) ID() ID { return t.id }

// Pid returns the operating system process id, or 0 once the process exited.
func (t *SpawnedTool) Pid() int {
	if t.exited.Load() || t.cmd.Process == nil {
		return 0
	}
	return t.cmd.Process.Pid
}

// Wait blocks until the process exits and returns its exit error.
func (t *SpawnedTool) Wait() error {
	<-t.done
	return t.waitErr
}

// Done is closed once the process has exited.
func (t *SpawnedTool) Done() <-chan struct{} { return t.done }

func (t *SpawnedTool) reap(stdout, stderr *outputBuffer) {
	t.waitErr = t.cmd.Wait()
	t.exited.Store(true)
	stdout.closeWrite()
	stderr.closeWrite()
	close(t.done)
}

// Kill terminates the process.
func (t *SpawnedTool) Kill() error {
	if t.cmd.Process == nil || t.exited.Load() {
		return nil
	}
	return t.cmd.Process.Kill()
}

// Summary describes the tool as a resource.
func (t *SpawnedTool) Summary() resource.Summary {
	name := "pid: dead"
	if pid := t.Pid(); pid != 0 {
		name = "pid: " + strconv.Itoa(pid)
	}
	return resource.Summary{
		Name:         name,
		IRI:          t.id.String(),
		ResourceType: ResourceType,
		Detail: map[string]string{
			"started": t.started.UTC().Format(time.RFC3339),
		},
	}
}

// State reports whether the process is still running.
func (t *SpawnedTool) State() string {
	if t.exited.Load() {
		return "Exited"
	}
	return "Running"
}

// IsTransient is true while the process runs.
func (t *SpawnedTool) IsTransient() bool { return !t.exited.Load() }

// Controller manages spawned processes.
type Controller struct {
	mu      sync.Mutex
	tools   map[string]*SpawnedTool
	counter atomic.Uint64

	registry map[string]Config
	baseDir  string
	logger   *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(tools map[string]Config) Option {
	return func(c *Controller) {
		for name, tool := range tools {
			c.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for requests that carry none.
func WithBaseDir(dir string) Option {
	return func(c *Controller) {
		c.baseDir = dir
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates an empty Controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		tools:    make(map[string]*SpawnedTool),
		registry: make(map[string]Config),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registered returns the allow-listed tools sorted by name.
func (c *Controller) Registered() []Config {
	out := make([]Config, 0, len(c.registry))
	for _, t := range c.registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve builds a request for an allow-listed tool. Inputs are passed as
// environment variables, never as flags.
func (c *Controller) Resolve(name string, inputs map[string]any) (Request, error) {
	tool, ok := c.registry[name]
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return Request{
		Tool:    tool.Name,
		Version: tool.Version,
		Command: tool.Command,
		Args:    append([]string(nil), tool.Args...),
		Env:     tool.Environment,
		Inputs:  inputs,
	}, nil
}

// Execute spawns the request and tracks it until it is taken. The process
// is not bound to ctx: it outlives the request that started it.
func (c *Controller) Execute(ctx context.Context, req Request) (*SpawnedTool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.Command(req.Command, req.Args...)
	c.prepare(cmd, req)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout := newOutputBuffer(MaxBufferedOutput)
	stderr := newOutputBuffer(MaxBufferedOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = outputWaitDelay

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", req.Command, err)
	}

	tool := &SpawnedTool{
		id:      req.id(c.nextUnid()),
		cmd:     cmd,
		started: time.Now(),
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	c.tools[tool.id.String()] = tool
	c.mu.Unlock()

	pid := cmd.Process.Pid
	c.logger.Info("Tool spawned", "tool_id", tool.id.String(), "command", req.Command, "pid", pid)

	go func() {
		tool.reap(stdout, stderr)
		c.logger.Debug("Tool exited", "tool_id", tool.id.String(), "pid", pid, "err", tool.waitErr)
	}()
	return tool, nil
}

// Wait runs the request to exit and returns its output. A non-zero exit is
// reported as an error alongside the captured output.
func (c *Controller) Wait(ctx context.Context, req Request) (Output, error) {
	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	c.prepare(cmd, req)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if err != nil {
		return out, fmt.Errorf("execution failed: %w. Stderr: %s", err, out.Stderr)
	}
	return out, nil
}

// Get returns a tracked tool.
func (c *Controller) Get(id string) (*SpawnedTool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tool, ok := c.tools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return tool, nil
}

// Take removes a tool from tracking and hands it to the caller.
func (c *Controller) Take(id string) (*SpawnedTool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tool, ok := c.tools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(c.tools, id)
	return tool, nil
}

// Delete stops tracking the tool and kills it if it is still running.
func (c *Controller) Delete(ctx context.Context, id string) error {
	tool, err := c.Take(id)
	if err != nil {
		return err
	}
	if err := tool.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %s: %w", id, err)
	}
	_ = tool.Wait()
	c.logger.Info("Tool deleted", "tool_id", id)
	return nil
}

// List returns the tracked tools ordered by ID.
func (c *Controller) List(ctx context.Context) ([]*SpawnedTool, error) {
	c.mu.Lock()
	out := make([]*SpawnedTool, 0, len(c.tools))
	for _, t := range c.tools {
		out = append(out, t)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id.String() < out[j].id.String() })
	return out, nil
}

// GetResource implements resource.Registry.
func (c *Controller) GetResource(ctx context.Context, iri string) (*SpawnedTool, bool) {
	tool, err := c.Get(iri)
	return tool, err == nil
}

// Close kills every tracked process.
func (c *Controller) Close() error {
	c.mu.Lock()
	tools := c.tools
	c.tools = make(map[string]*SpawnedTool)
	c.mu.Unlock()

	var errs []error
	for id, t := range tools {
		if err := t.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("kill %s: %w", id, err))
			continue
		}
		_ = t.Wait()
	}
	return errors.Join(errs...)
}

func (c *Controller) prepare(cmd *exec.Cmd, req Request) {
	if req.Dir == "" {
		req.Dir = c.baseDir
	}
	req.command(cmd)
}

func (c *Controller) nextUnid() string {
	n := c.counter.Add(1)
	return strconv.FormatUint(n, 10) + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
