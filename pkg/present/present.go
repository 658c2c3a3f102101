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

package present

import (
	"context"
	"fmt"
	"path"
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/message"

	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/i18n"
)

// Input is what a finished correction hands to the presenter
type Input struct {
	URI       string
	Original  string
	Corrected string
	Reasons   []string
}

// 🪟 Presentation is the pair of virtual documents plus the rationale list
type Presentation struct {
	Diff    host.Diff
	Reasons []string
	// Corrected is the text to apply, without the rationale comment
	Corrected string
}

// 🏗️ Build prepares the diff view for in. The corrected view gets the rationale
// appended as a comment block; the text that gets applied does not.
func Build(p *message.Printer, in Input) Presentation {
	name := path.Base(in.URI)
	if name == "." || name == "/" || name == "" {
		name = in.URI
	}

	return Presentation{
		Diff: host.Diff{
			Title:         p.Sprintf(i18n.DiffTitle, name),
			OriginalName:  p.Sprintf(i18n.DiffOriginal),
			Original:      in.Original,
			CorrectedName: p.Sprintf(i18n.DiffCorrected),
			Corrected:     in.Corrected + rationaleComment(p.Sprintf(i18n.ReasonsHeader), in.Reasons),
			Applied:       in.Corrected,
		},
		Reasons:   in.Reasons,
		Corrected: in.Corrected,
	}
}

func rationaleComment(header string, reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n<!-- ")
	b.WriteString(header)
	b.WriteString("\n")
	for i, r := range reasons {
		// "--" would end the comment early
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.ReplaceAll(r, "--", "‐‐"))
	}
	b.WriteString("-->")
	return b.String()
}

// NumberedList renders reasons one per line
func NumberedList(reasons []string) string {
	lines := make([]string, len(reasons))
	for i, r := range reasons {
		lines[i] = fmt.Sprintf("%d. %s", i+1, r)
	}
	return strings.Join(lines, "\n")
}

// 🎬 Presenter drives the diff, rationale and apply prompts
type Presenter struct {
	printer *message.Printer
}

// 🏭 New creates a presenter that localizes with p
func New(p *message.Printer) *Presenter {
	return &Presenter{printer: p}
}

// Present shows the diff, then the rationale list, then asks whether to apply.
// It reports true only when the user picked the apply choice.
func (pr *Presenter) Present(ctx context.Context, ui host.UI, p Presentation) (bool, error) {
	if err := ui.ShowDiff(ctx, p.Diff); err != nil {
		return false, errors.Errorf("showing diff: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if len(p.Reasons) > 0 {
		prompt := pr.printer.Sprintf(i18n.PromptRationale, NumberedList(p.Reasons))
		if _, err := ui.Ask(ctx, prompt, pr.printer.Sprintf(i18n.ChoiceOK)); err != nil {
			return false, errors.Errorf("showing rationale: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
	}

	apply := pr.printer.Sprintf(i18n.ChoiceApply)
	choice, err := ui.Ask(ctx, pr.printer.Sprintf(i18n.PromptApply), apply, pr.printer.Sprintf(i18n.ChoiceDiscard))
	if err != nil {
		return false, errors.Errorf("asking to apply: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return choice == apply, nil
}
