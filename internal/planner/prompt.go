package planner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// PromptFunc asks the user a question and returns the raw answer.
type PromptFunc func(message string) (string, error)

// confirm asks question and reports whether the answer is affirmative.
// A nil prompt, an empty answer or EOF count as "no".
func confirm(prompt PromptFunc, question string) (bool, error) {
	if prompt == nil {
		return false, nil
	}
	answer, err := prompt(question)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}

// ConsolePrompter returns a PromptFunc that writes "message [y/N]: " to out
// and reads one line from in. The reader is buffered once so consecutive
// prompts share it.
func ConsolePrompter(in io.Reader, out io.Writer) PromptFunc {
	reader := bufio.NewReader(in)
	return func(message string) (string, error) {
		fmt.Fprintf(out, "%s [y/N]: ", message)
		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return answer, nil
	}
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
