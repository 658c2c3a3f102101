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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/log"
	"github.com/walteh/kousei/pkg/present"
	"github.com/walteh/kousei/pkg/rules"
)

// NewRulesCmd creates the rules command
func NewRulesCmd(opts *opts.RootOpts) *cobra.Command {
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "rules [FILE]",
		Short: "List the proofreading rules, or show which fire on FILE",
		Long: `Rules lists the active rules in evaluation order: the built-in rules that are
not disabled, then the rules from the config file.

With FILE, the rules are applied in memory and every rule that changed the text is
listed. The file is never modified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			console := log.FromContext(ctx)

			rs, err := opts.Rules()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				for _, r := range rs {
					console.Println(fmt.Sprintf("%-22s %s", r.ID, r.Description))
				}
				return nil
			}

			doc, _, err := openDocument(ctx, args[0])
			if err != nil {
				return err
			}

			console.StartDocument(ctx, log.DocumentOperation{Path: doc.URI(), Scope: "dry-run"})
			corrected, fired := rules.ApplyTo(doc.URI(), rs, doc.Text())
			for _, f := range fired {
				console.LogRecord(ctx, log.RecordLine{Kind: "rule", RuleID: f.Rule.ID, Description: f.Rule.Description, Count: f.Count})
			}
			console.EndDocument(ctx)

			if showDiff && len(fired) > 0 {
				console.Println(present.Unified(doc.Text(), corrected, doc.URI(), doc.URI()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDiff, "diff", false, "print a unified diff of the rule output")

	return cmd
}
