package tools_test

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/formwork/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    tools.ID
		wantErr bool
	}{
		{"sam:1.0:42", tools.ID{Tool: "sam", Version: "1.0", Unid: "42"}, false},
		{"sam:1.0", tools.ID{}, true},
		{"sam:1.0:42:extra", tools.ID{}, true},
		{"sam::42", tools.ID{}, true},
		{"", tools.ID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := tools.ParseID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, tools.ErrInvalidID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		cfg, err := tools.LoadConfig(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, cfg)
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "tools.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
tools:
  - name: greet
    command: sh
    args: ["-c", "echo hi"]
    env:
      MODE: test
    description: Says hi
  - name: ""
    command: ignored
  - name: nocommand
`), 0o644))

		cfg, err := tools.LoadConfig(path)
		require.NoError(t, err)
		require.Len(t, cfg, 1)
		assert.Equal(t, []string{"-c", "echo hi"}, cfg["greet"].Args)
		assert.Equal(t, "test", cfg["greet"].Environment["MODE"])
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "tools.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tools":[{"name":"ls","command":"ls"}]}`), 0o644))

		cfg, err := tools.LoadConfig(path)
		require.NoError(t, err)
		assert.Contains(t, cfg, "ls")
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
		_, err := tools.LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestController_Resolve(t *testing.T) {
	c := tools.NewController(tools.WithRegistry(map[string]tools.Config{
		"greet": {Name: "greet", Command: "sh", Args: []string{"-c", "echo $FORMWORK_ARG_NAME"}},
	}))

	req, err := c.Resolve("greet", map[string]any{"name": "web"})
	require.NoError(t, err)
	assert.Equal(t, "sh", req.Command)
	assert.Equal(t, "web", req.Inputs["name"])

	_, err = c.Resolve("rm", nil)
	assert.ErrorIs(t, err, tools.ErrNotRegistered)

	require.Len(t, c.Registered(), 1)
}

func TestController_Wait(t *testing.T) {
	skipOnWindows(t)
	c := tools.NewController()
	ctx := context.Background()

	t.Run("Inputs become environment variables", func(t *testing.T) {
		out, err := c.Wait(ctx, tools.Request{
			Command: "sh",
			Args:    []string{"-c", `echo "$FORMWORK_ARG_STAGE_NAME $FORMWORK_ARG_TAGS $EXTRA"`},
			Env:     map[string]string{"EXTRA": "x"},
			Inputs:  map[string]any{"stage_name": "beta", "tags": []string{"a"}},
		})
		require.NoError(t, err)
		assert.Equal(t, `beta ["a"] x`, strings.TrimSpace(out.Stdout))
		assert.Equal(t, 0, out.ExitCode)
	})

	t.Run("Numeric inputs keep plain notation", func(t *testing.T) {
		out, err := c.Wait(ctx, tools.Request{
			Command: "sh",
			Args:    []string{"-c", `printf '%s %s %s' "$FORMWORK_ARG_BIG" "$FORMWORK_ARG_RATIO" "$FORMWORK_ARG_COUNT"`},
			Inputs:  map[string]any{"big": 1e21, "ratio": 0.000001, "count": 3},
		})
		require.NoError(t, err)
		assert.Equal(t, "1000000000000000000000 0.000001 3", out.Stdout)
	})

	t.Run("Failure keeps output", func(t *testing.T) {
		out, err := c.Wait(ctx, tools.Request{Command: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
		require.Error(t, err)
		assert.Equal(t, 3, out.ExitCode)
		assert.Contains(t, out.Combined(), "oops")
		assert.Contains(t, err.Error(), "oops")
	})
}

func TestController_ExecuteTake(t *testing.T) {
	skipOnWindows(t)
	c := tools.NewController()
	ctx := context.Background()

	tool, err := c.Execute(ctx, tools.Request{Tool: "cat", Version: "1", Command: "cat"})
	require.NoError(t, err)

	id := tool.ID().String()
	assert.True(t, strings.HasPrefix(id, "cat:1:"))

	listed, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	summary := listed[0].Summary()
	assert.Equal(t, tools.ResourceType, summary.ResourceType)
	assert.Equal(t, id, summary.IRI)
	assert.True(t, strings.HasPrefix(summary.Name, "pid: "))
	assert.True(t, tool.IsTransient())

	got, ok := c.GetResource(ctx, id)
	require.True(t, ok)
	assert.Same(t, tool, got)

	taken, err := c.Take(id)
	require.NoError(t, err)
	_, err = c.Get(id)
	assert.ErrorIs(t, err, tools.ErrNotFound)

	_, err = io.WriteString(taken.Stdin, "ping\n")
	require.NoError(t, err)
	require.NoError(t, taken.Stdin.Close())

	data, err := io.ReadAll(taken.Stdout)
	require.NoError(t, err)
	assert.Equal(t, "ping\n", string(data))

	require.NoError(t, taken.Wait())
	assert.Equal(t, "Exited", taken.State())
	assert.Equal(t, "pid: dead", taken.Summary().Name)
}

func TestController_Close(t *testing.T) {
	skipOnWindows(t)
	c := tools.NewController()

	_, err := c.Execute(context.Background(), tools.Request{Command: "sleep", Args: []string{"30"}})
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	listed, _ := c.List(context.Background())
	assert.Empty(t, listed)
}

func TestController_ExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tools.NewController().Execute(ctx, tools.Request{Command: "true"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestController_ReapsUnattendedTools(t *testing.T) {
	skipOnWindows(t)
	c := tools.NewController()
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	t.Run("Exited without a reader", func(t *testing.T) {
		tool, err := c.Execute(ctx, tools.Request{Command: "sh", Args: []string{"-c", "exit 0"}})
		require.NoError(t, err)

		assert.Eventually(t, func() bool { return tool.State() == "Exited" }, 5*time.Second, 20*time.Millisecond)
		assert.False(t, tool.IsTransient())
		assert.Zero(t, tool.Pid())
		assert.Equal(t, "pid: dead", tool.Summary().Name)

		tracked, err := c.Get(tool.ID().String())
		require.NoError(t, err)
		assert.Equal(t, "Exited", tracked.State())
	})

	t.Run("Output larger than a pipe buffer", func(t *testing.T) {
		tool, err := c.Execute(ctx, tools.Request{Command: "sh", Args: []string{"-c", "head -c 300000 /dev/zero; echo done"}})
		require.NoError(t, err)

		select {
		case <-tool.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("tool did not exit while nobody read its output")
		}
		require.NoError(t, tool.Wait())

		data, err := io.ReadAll(tool.Stdout)
		require.NoError(t, err)
		assert.Len(t, data, 300005)
		assert.True(t, strings.HasSuffix(string(data), "done\n"))
	})

	t.Run("Exit code", func(t *testing.T) {
		tool, err := c.Execute(ctx, tools.Request{Command: "sh", Args: []string{"-c", "exit 4"}})
		require.NoError(t, err)

		var exitErr *exec.ExitError
		require.ErrorAs(t, tool.Wait(), &exitErr)
		assert.Equal(t, 4, exitErr.ExitCode())
		assert.Equal(t, "Exited", tool.State())
	})
}
