// Package confirmation prompts the user before destructive operations:
// restore, rollback, and import all replace live data.
package confirmation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	apperrors "invoicestore/internal/errors"
)

// Service prompts for confirmation before data-replacing operations.
type Service interface {
	// Confirm displays the warning and waits for a yes/no answer. An
	// interrupt counts as a refusal.
	Confirm(warning string, autoApprove bool) (bool, error)
}

// service implements the Service interface
type service struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewService creates a confirmation service reading from stdin.
func NewService() Service {
	return &service{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Confirm displays the warning and prompts for user confirmation.
func (s *service) Confirm(warning string, autoApprove bool) (bool, error) {
	fmt.Fprintln(s.out, warning)

	if autoApprove {
		fmt.Fprintln(s.out, "auto-approving")
		return true, nil
	}

	interruptChan := make(chan os.Signal, 1)
	signal.Notify(interruptChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interruptChan)

	inputChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		fmt.Fprint(s.out, "Continue? This replaces current data. [y/N]: ")
		input, err := s.reader.ReadString('\n')
		if err != nil {
			errorChan <- err
			return
		}
		inputChan <- input
	}()

	select {
	case <-interruptChan:
		fmt.Fprintln(s.out, "\ncancelled")
		return false, apperrors.NewAppError(apperrors.ErrorTypeInterruption, "operation cancelled by user", nil)
	case err := <-errorChan:
		return false, fmt.Errorf("failed to read user input: %w", err)
	case input := <-inputChan:
		return parseAnswer(input), nil
	}
}

// parseAnswer interprets the user's reply; anything but an explicit yes is
// a no.
func parseAnswer(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
