// Package actions integrates with the GitHub Actions runner: CI detection,
// runner context, step outputs, and workflow-command annotations.
package actions

import (
	"fmt"
	"os"
	"strings"
)

// IsCI reports whether the process runs under a CI runner.
func IsCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// EventPath returns the path of the event payload file, empty outside a run.
func EventPath() string {
	return os.Getenv("GITHUB_EVENT_PATH")
}

// Repository returns the owner and name of the repository the run belongs to.
func Repository() (owner, repo string, ok bool) {
	full := os.Getenv("GITHUB_REPOSITORY")
	parts := strings.SplitN(full, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// SetOutput writes a step output to the GitHub Actions output file.
func SetOutput(name, value string) error {
	outputFile := os.Getenv("GITHUB_OUTPUT")
	if outputFile == "" {
		fmt.Printf("::set-output name=%s::%s\n", name, escapeData(value))
		return nil
	}

	f, err := os.OpenFile(outputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s=%s\n", name, singleLine(value))
	return err
}

// SetOutputs writes multiple outputs to the GitHub Actions output file.
func SetOutputs(outputs map[string]string) error {
	for name, value := range outputs {
		if err := SetOutput(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Errorf emits a failure-level annotation on the run.
func Errorf(format string, args ...interface{}) {
	fmt.Println(command("error", fmt.Sprintf(format, args...)))
}

// Noticef emits an informational annotation on the run.
func Noticef(format string, args ...interface{}) {
	fmt.Println(command("notice", fmt.Sprintf(format, args...)))
}

func command(kind, msg string) string {
	return "::" + kind + "::" + escapeData(msg)
}

// escapeData encodes the characters the workflow-command grammar reserves.
func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	s = strings.ReplaceAll(s, "\n", "%0A")
	return s
}

// singleLine keeps an output value on one line of the outputs file.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
