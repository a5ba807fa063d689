package tagger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Exec runs an external tagger per call. The text is written to the
// command's stdin and the tagged text is read from stdout.
type Exec struct {
	name string
	args []string
}

// NewExec creates a tagger that runs command[0] with command[1:] as arguments.
func NewExec(command []string) (*Exec, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, errors.New("tagger command is empty")
	}
	return &Exec{name: command[0], args: command[1:]}, nil
}

// Tag implements Tagger. Runs of whitespace in the output are collapsed to
// single spaces.
func (e *Exec) Tag(ctx context.Context, text string) (string, error) {
	cmd := exec.CommandContext(ctx, e.name, e.args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("run tagger %s: %w: %s", e.name, err, msg)
		}
		return "", fmt.Errorf("run tagger %s: %w", e.name, err)
	}

	return strings.Join(strings.Fields(stdout.String()), " "), nil
}
