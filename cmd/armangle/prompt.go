package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirmDeletion asks the operator to accept raw-video deletion. Returns
// false when stdin is not a terminal: an unattended run must never destroy
// videos nobody agreed to lose.
func confirmDeletion(out io.Writer, in io.Reader, interactive bool) bool {
	if !interactive {
		return false
	}
	fmt.Fprint(out, "Raw videos are deleted after each verified frame extraction. Proceed? [y/N] ")
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
