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

package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"

	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/host"
	"github.com/walteh/kousei/pkg/host/terminal"
	"github.com/walteh/kousei/pkg/i18n"
	"github.com/walteh/kousei/pkg/log"
	"github.com/walteh/kousei/pkg/rules"
	"github.com/walteh/kousei/pkg/status"
)

type correctFlags struct {
	from string
	to   string
	yes  bool
}

// NewCorrectCmd creates the correct command
func NewCorrectCmd(opts *opts.RootOpts) *cobra.Command {
	var flags correctFlags

	cmd := &cobra.Command{
		Use:   "correct FILE",
		Short: "Proofread a Japanese document",
		Long: `Correct proofreads FILE and offers to write the result back.
It will:
1. Apply the proofreading rules
2. Check that sentence endings use one style
3. Ask the language model for further corrections, if an API key is set
4. Show the diff and the reasons, then ask whether to apply them

Use --from and --to (LINE:COL, 1-based) to correct only part of the file.
The previous contents are kept in FILE.bak.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "correct").Logger().WithContext(cmd.Context())
			return runCorrect(ctx, cmd, opts, flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.from, "from", "", "selection start as LINE:COL")
	cmd.Flags().StringVar(&flags.to, "to", "", "selection end as LINE:COL")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "apply corrections without asking")
	cmd.MarkFlagsRequiredTogether("from", "to")

	return cmd
}

func runCorrect(ctx context.Context, cmd *cobra.Command, opts *opts.RootOpts, flags correctFlags, file string) error {
	console := log.FromContext(ctx)
	printer := opts.Printer()

	rs, err := opts.Rules()
	if err != nil {
		return err
	}

	doc, _, err := openDocument(ctx, file)
	if err != nil {
		return err
	}

	req := correction.Request{Scope: correction.ScopeDocument}
	var sel host.Range
	if flags.from != "" {
		sel, err = parseSelection(doc.Text(), flags.from, flags.to)
		if err != nil {
			return err
		}
		req.Scope = correction.ScopeSelection
	}

	interactive := isTerminal(opts.Stdin)
	var prompter terminal.Prompter
	switch {
	case flags.yes:
		prompter = terminal.AutoPrompter{}
	case interactive:
		prompter = terminal.PtermPrompter{}
	default:
		prompter = terminal.NewLinePrompter(opts.Stdin, cmd.OutOrStdout())
	}

	h := terminal.New(terminal.Options{
		Document:  doc,
		Selection: sel,
		Console:   console,
		Prompter:  prompter,
		Spinner:   interactive,
	})

	orch, err := correction.New(correction.Options{
		Host:         h,
		Rules:        func() []rules.Rule { return rs },
		Credentials:  opts.Store,
		NewCorrector: opts.CorrectorFactory(),
		Printer:      printer,
	})
	if err != nil {
		return errors.Errorf("creating orchestrator: %w", err)
	}

	console.StartDocument(ctx, log.DocumentOperation{Path: doc.URI(), Scope: req.Scope.String()})
	out := orch.Toggle(ctx, req)
	for _, r := range out.Records {
		console.LogRecord(ctx, log.RecordLine{Kind: string(r.Kind), RuleID: r.RuleID, Description: r.Description})
	}
	console.EndDocument(ctx)

	switch out.State {
	case correction.Failed:
		return out.Err
	case correction.Cancelled:
		console.Warning(printer.Sprintf(i18n.NoticeCancelled))
	}
	return nil
}

func openDocument(ctx context.Context, file string) (*terminal.FileDocument, *status.Manager, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, nil, errors.Errorf("resolving %s: %w", file, err)
	}
	mgr := status.New(filepath.Dir(abs), zerolog.Ctx(ctx))
	doc, err := terminal.OpenFile(ctx, mgr, filepath.Base(abs))
	if err != nil {
		return nil, nil, err
	}
	return doc, mgr, nil
}

func parseSelection(text, from, to string) (host.Range, error) {
	start, err := host.ParsePosition(from)
	if err != nil {
		return host.Range{}, errors.Errorf("parsing --from: %w", err)
	}
	end, err := host.ParsePosition(to)
	if err != nil {
		return host.Range{}, errors.Errorf("parsing --to: %w", err)
	}
	return host.RangeOf(text, start, end)
}

func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
