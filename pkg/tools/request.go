package tools

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/formwork/pkg/expression"
)

// ArgEnvPrefix prefixes the environment variables carrying tool arguments.
const ArgEnvPrefix = "FORMWORK_ARG_"

// UnknownVersion is used when a request carries no tool version.
const UnknownVersion = "unknown"

// Request describes a process to start.
type Request struct {
	// Tool names the tool for identification; it defaults to the command's base name.
	Tool    string
	Version string
	Command string
	Args    []string
	// Env holds extra environment variables.
	Env map[string]string
	// Inputs are exported as FORMWORK_ARG_<KEY> variables.
	Inputs map[string]any
	Dir    string
}

func (r Request) id(unid string) ID {
	tool := r.Tool
	if tool == "" {
		tool = baseName(r.Command)
	}
	version := r.Version
	if version == "" {
		version = UnknownVersion
	}
	return ID{
		Tool:    strings.ReplaceAll(tool, idSeparator, "_"),
		Version: strings.ReplaceAll(version, idSeparator, "_"),
		Unid:    unid,
	}
}

func (r Request) command(cmd *exec.Cmd) {
	cmd.Dir = r.Dir
	cmd.Env = append(cmd.Environ(), r.environ()...)
}

// environ renders Env and Inputs as sorted KEY=VALUE pairs.
func (r Request) environ() []string {
	env := make([]string, 0, len(r.Env)+len(r.Inputs))
	for k, v := range r.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range r.Inputs {
		env = append(env, ArgEnvPrefix+strings.ToUpper(k)+"="+encodeInput(v))
	}
	sort.Strings(env)
	return env
}

// encodeInput renders scalars as text and complex values as JSON.
func encodeInput(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := expression.Stringify(v); ok {
		return s
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

func baseName(command string) string {
	if i := strings.LastIndexAny(command, `/\`); i >= 0 {
		return command[i+1:]
	}
	return command
}
