package relocate

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Shell relocates by running cp/mv command lines through a shell, so a
// privileged shell such as "su" can reach files the process cannot.
type Shell struct {
	// Path is the shell binary. Empty means "sh".
	Path string
	// Args precede the command line. With the default shell they are
	// {"-c"}; a shell that reads commands from stdin takes none.
	Args []string
	// Stdin sends the command line on standard input instead of as the
	// final argument.
	Stdin bool
}

// CopyIn implements Relocator.
func (s Shell) CopyIn(ctx context.Context, src, dst string) Status {
	return s.Run(ctx, CopyCommand(src, dst))
}

// MoveOut implements Relocator.
func (s Shell) MoveOut(ctx context.Context, src, dst string) Status {
	return s.Run(ctx, MoveCommand(src, dst))
}

// Run executes one command line and returns its standard output, or a
// failure status carrying the exit error and combined output.
func (s Shell) Run(ctx context.Context, command string) Status {
	path := s.Path
	args := s.Args

	if path == "" {
		path = "sh"
		if args == nil && !s.Stdin {
			args = []string{"-c"}
		}
	}

	var cmd *exec.Cmd
	if s.Stdin {
		cmd = exec.CommandContext(ctx, path, args...)
		cmd.Stdin = strings.NewReader(command + "\nexit\n")
	} else {
		cmd = exec.CommandContext(ctx, path, append(append([]string{}, args...), command)...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Failure("%v\n%s%s", err, stdout.String(), stderr.String())
	}

	return Status(stdout.String())
}

// CopyCommand builds the command line copying src to dst.
func CopyCommand(src, dst string) string {
	return "cp -f " + quote(src) + " " + quote(dst) + " && chmod 666 " + quote(dst)
}

// MoveCommand builds the command line moving src over dst.
func MoveCommand(src, dst string) string {
	return "mv -f " + quote(src) + " " + quote(dst) + " && chmod 666 " + quote(dst)
}

func quote(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
