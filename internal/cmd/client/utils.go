package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ErrDeclined is returned when the user answers no to a destructive prompt.
var ErrDeclined = errors.New("operation declined")

// ErrPrecondition marks a request the user can correct, e.g. asking for more
// events than the replay cache holds.
var ErrPrecondition = errors.New("precondition failed")

// confirm asks question on stderr and reads y/N from stdin. yes short-circuits
// the prompt. A stdin that is not a terminal answers no.
func confirm(cmd *cobra.Command, yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s (not a terminal; pass --yes to proceed)\n", question)
		return false, nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// pathExists reports whether path names an existing file or directory.
func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// removeWithConfirm deletes path after the user agrees. Missing paths are a no-op.
func removeWithConfirm(cmd *cobra.Command, yes bool, path, what string) error {
	exists, err := pathExists(path)
	if err != nil || !exists {
		return err
	}
	ok, err := confirm(cmd, yes, fmt.Sprintf("%s %s exists. Delete it?", what, path))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s was kept", ErrDeclined, what, path)
	}
	return os.RemoveAll(path)
}

// perSecond renders n/elapsed for progress lines.
func perSecond(n int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f/s", float64(n)/elapsed.Seconds())
}
