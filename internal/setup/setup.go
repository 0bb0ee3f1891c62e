// Package setup registers and unregisters the tradeshop MCP server with
// supported coding agents (Claude Code, Cursor, OpenCode) by editing their
// JSON config files in place.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

// ServerName is the key the server entry is stored under.
const ServerName = "tradeshop"

// Agent names a supported coding agent.
type Agent string

// Supported agents.
const (
	ClaudeCode Agent = "claude-code"
	Cursor     Agent = "cursor"
	Opencode   Agent = "opencode"
)

// Agents lists every supported agent in display order.
var Agents = []Agent{ClaudeCode, Cursor, Opencode}

// ErrUnknownAgent is returned for an agent name not in Agents.
var ErrUnknownAgent = errors.New("unknown agent")

// Result describes what Install or Uninstall did.
type Result struct {
	Path    string
	Changed bool
	Message string
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// ConfigPath returns the config file that holds agent's MCP servers. With
// project set the file lives under dir (the working directory when dir is
// empty); otherwise it is the agent's per-user file.
//
//revive:disable:flag-parameter
func ConfigPath(agent Agent, project bool, dir string) (string, error) {
	base := dir
	if project && base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		base = cwd
	}
	if !project {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = home
	}

	switch agent {
	case ClaudeCode:
		if project {
			return filepath.Join(base, ".mcp.json"), nil
		}
		return filepath.Join(base, ".claude.json"), nil
	case Cursor:
		return filepath.Join(base, ".cursor", "mcp.json"), nil
	case Opencode:
		if project {
			return filepath.Join(base, "opencode.json"), nil
		}
		return filepath.Join(base, ".config", "opencode", "opencode.json"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgent, agent)
}

//revive:enable:flag-parameter

// ---------------------------------------------------------------------------
// Install / Uninstall
// ---------------------------------------------------------------------------

// Install writes the server entry for agent into path. When home is set the
// server is started with --home so the agent shares that home's session. An
// existing entry with different settings is replaced.
func Install(agent Agent, path, home string) (Result, error) {
	section, entry, err := entryFor(agent, home)
	if err != nil {
		return Result{}, err
	}

	data := readJSON(path)
	servers, _ := data[section].(map[string]any)
	if servers == nil {
		servers = make(map[string]any)
		data[section] = servers
	}

	msg := "Installed"
	if existing, ok := servers[ServerName]; ok {
		if reflect.DeepEqual(existing, entry) {
			return Result{Path: path, Message: "Already installed"}, nil
		}
		msg = "Updated"
	}
	servers[ServerName] = entry
	if err := writeJSON(path, data); err != nil {
		return Result{}, fmt.Errorf("setup.Install: %w", err)
	}
	return Result{Path: path, Changed: true, Message: fmt.Sprintf("%s: %s in %s", msg, section, path)}, nil
}

// Uninstall removes the server entry for agent from path. Sections and files
// left empty are removed too.
func Uninstall(agent Agent, path string) (Result, error) {
	section, _, err := entryFor(agent, "")
	if err != nil {
		return Result{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Result{Path: path, Message: "Nothing to remove"}, nil
	}

	data := readJSON(path)
	servers, _ := data[section].(map[string]any)
	if _, exists := servers[ServerName]; !exists {
		return Result{Path: path, Message: "Nothing to remove"}, nil
	}
	delete(servers, ServerName)
	if len(servers) == 0 {
		delete(data, section)
	}

	if len(data) == 0 {
		err = os.Remove(path)
	} else {
		err = writeJSON(path, data)
	}
	if err != nil {
		return Result{}, fmt.Errorf("setup.Uninstall: %w", err)
	}
	return Result{Path: path, Changed: true, Message: fmt.Sprintf("Removed: %s from %s", section, path)}, nil
}

// entryFor returns the config section and server entry for agent. Values use
// the types encoding/json decodes into so entries compare with DeepEqual.
func entryFor(agent Agent, home string) (section string, entry map[string]any, err error) {
	args := []any{"mcp"}
	if home != "" {
		args = append(args, "--home", home)
	}

	switch agent {
	case ClaudeCode, Cursor:
		return "mcpServers", map[string]any{
			"command": "tradeshop",
			"args":    args,
			"type":    "stdio",
		}, nil
	case Opencode:
		return "mcp", map[string]any{
			"type":    "local",
			"command": append([]any{"tradeshop"}, args...),
		}, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownAgent, agent)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func readJSON(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]any)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]any)
	}
	return m
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- agent config files (MCP server entries) do not contain secrets
}
