// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// 💬 Prompter asks the user questions
type Prompter interface {
	// Select returns one of choices, or "" when the user gave no answer
	Select(ctx context.Context, prompt string, choices []string) (string, error)
	// Secret reads a hidden value
	Secret(ctx context.Context, prompt string) (string, error)
}

// PtermPrompter uses pterm's interactive widgets. It needs a TTY.
type PtermPrompter struct{}

func (PtermPrompter) Select(ctx context.Context, prompt string, choices []string) (string, error) {
	if len(choices) == 1 {
		pterm.Info.Println(prompt)
		return choices[0], nil
	}
	choice, err := pterm.DefaultInteractiveSelect.
		WithOptions(choices).
		WithDefaultOption(choices[0]).
		Show(prompt)
	if err != nil {
		return "", errors.Errorf("interactive select: %w", err)
	}
	return choice, nil
}

func (PtermPrompter) Secret(ctx context.Context, prompt string) (string, error) {
	value, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show(prompt)
	if err != nil {
		return "", errors.Errorf("interactive input: %w", err)
	}
	return value, nil
}

// 📜 LinePrompter reads numbered answers line by line. It works on pipes.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a prompter reading from in and writing to out
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Select(ctx context.Context, prompt string, choices []string) (string, error) {
	fmt.Fprintln(p.out, prompt)
	if len(choices) == 1 {
		return choices[0], nil
	}
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c)
	}
	fmt.Fprint(p.out, "> ")

	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], nil
	}
	for _, c := range choices {
		if strings.EqualFold(line, c) {
			return c, nil
		}
	}
	return "", nil
}

func (p *LinePrompter) Secret(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", prompt)
	return p.readLine()
}

func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ✅ AutoPrompter answers every prompt with its first choice and never gives a
// secret. It backs --yes.
type AutoPrompter struct{}

func (AutoPrompter) Select(ctx context.Context, prompt string, choices []string) (string, error) {
	if len(choices) == 0 {
		return "", nil
	}
	return choices[0], nil
}

func (AutoPrompter) Secret(ctx context.Context, prompt string) (string, error) {
	return "", nil
}
