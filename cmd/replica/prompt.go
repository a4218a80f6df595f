package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// promptForRun interactively collects the source, destination, and optional
// exclusion patterns when the command is started without arguments on a
// terminal. Patterns are entered space-separated on one line.
func promptForRun(in io.Reader, out io.Writer) ([]string, error) {
	scanner := bufio.NewScanner(in)

	readLine := func(label string) (string, error) {
		fmt.Fprintf(out, "%s: ", label)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.New("input closed")
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	src, err := readLine("source directory")
	if err != nil {
		return nil, err
	}
	if src == "" {
		return nil, errors.New("source directory is required")
	}

	dst, err := readLine("destination directory")
	if err != nil {
		return nil, err
	}
	if dst == "" {
		return nil, errors.New("destination directory is required")
	}

	patterns, err := readLine("exclude patterns (optional, space-separated)")
	if err != nil {
		return nil, err
	}

	args := []string{src, dst}
	if patterns != "" {
		args = append(args, strings.Fields(patterns)...)
	}
	return args, nil
}
