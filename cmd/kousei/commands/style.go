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
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/correction"
	"github.com/walteh/kousei/pkg/host/terminal"
	"github.com/walteh/kousei/pkg/log"
)

// NewStyleCmd creates the style command
func NewStyleCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style FILE",
		Short: "Check whether sentence endings use one style",
		Long: `Style counts です・ます and である sentence endings in FILE and reports
whether the document mixes them. The file is never modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, _, err := openDocument(ctx, args[0])
			if err != nil {
				return err
			}

			orch, err := correction.New(correction.Options{
				Host: terminal.New(terminal.Options{
					Document: doc,
					Console:  log.FromContext(ctx),
					Prompter: terminal.AutoPrompter{},
				}),
				Printer: opts.Printer(),
			})
			if err != nil {
				return errors.Errorf("creating orchestrator: %w", err)
			}

			orch.AnalyzeStyle(ctx)
			return nil
		},
	}

	return cmd
}
