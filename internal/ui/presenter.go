package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Presenter is the rendering surface the orchestrator talks through. The
// default implementation writes styled plain text; tests substitute a
// recording presenter.
type Presenter interface {
	PlanHeader(sourcePath string)
	PlanLine(line string)
	PlanSkipped(sourcePath, reason string)
	BatchResult(sourcePath, message string, ok bool)
	Summary(renamed, skipped, conflicts, failed int)
	Confirm(prompt string) bool
}

// Console is the default Presenter.
type Console struct {
	Out io.Writer
	In  io.Reader
	// AssumeYes answers every Confirm without prompting.
	AssumeYes bool
}

// NewConsole builds a Console bound to stdin/stdout.
func NewConsole(assumeYes bool) *Console {
	return &Console{Out: os.Stdout, In: os.Stdin, AssumeYes: assumeYes}
}

func (c *Console) PlanHeader(sourcePath string) {
	fmt.Fprintf(c.Out, "\n%s\n", Path(sourcePath))
}

func (c *Console) PlanLine(line string) {
	fmt.Fprintf(c.Out, "  %s\n", line)
}

func (c *Console) PlanSkipped(sourcePath, reason string) {
	fmt.Fprintf(c.Out, "%s %s %s\n", Dim("skip"), Path(sourcePath), Dim(reason))
}

func (c *Console) BatchResult(sourcePath, message string, ok bool) {
	marker := Success("ok")
	if !ok {
		marker = Error("fail")
	}
	fmt.Fprintf(c.Out, "%s %s: %s\n", marker, Path(sourcePath), message)
}

func (c *Console) Summary(renamed, skipped, conflicts, failed int) {
	fmt.Fprintf(c.Out, "\n%s %d renamed, %d skipped, %d conflicts, %d failed\n",
		Action("Summary:"), renamed, skipped, conflicts, failed)
}

// Confirm prompts for a yes/no answer. Input failure counts as decline.
func (c *Console) Confirm(prompt string) bool {
	if c.AssumeYes {
		return true
	}

	fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(c.In)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
