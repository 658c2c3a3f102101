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

package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kousei/cmd/kousei/commands"
	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/config"
	"github.com/walteh/kousei/pkg/log"
)

// NewRootCmd builds the kousei command tree around o
func NewRootCmd(o *opts.RootOpts) *cobra.Command {
	root := &cobra.Command{
		Use:   "kousei",
		Short: "Proofread Japanese documents",
		Long: `kousei proofreads Japanese text with a fixed set of rules, a sentence-ending
style check and, when an API key is configured, a language model.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger := newLogger(cmd.ErrOrStderr(), o.Debug)
			ctx = logger.WithContext(ctx)
			ctx = log.NewContext(ctx, log.New(cmd.OutOrStdout(), logger))

			store, err := config.Open(ctx, o.ConfigPath)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			o.Store = store

			cmd.SetContext(ctx)
			return nil
		},
	}

	addRootFlags(root, o)

	root.AddCommand(
		commands.NewCorrectCmd(o),
		commands.NewStyleCmd(o),
		commands.NewRulesCmd(o),
		commands.NewConfigCmd(o),
		commands.NewRestoreCmd(o),
		commands.NewServeCmd(o),
		commands.NewVersionCmd(),
	)

	return root
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, o *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&o.ConfigPath, "config", "c", config.DefaultPath(), "config file path (.yaml, .json or .hcl)")
	cmd.PersistentFlags().BoolVarP(&o.Debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&o.Locale, "locale", "", "message language (ja or en), overrides the config")
}

// newLogger returns the structured logger. Human output goes through log.Logger, so
// only warnings reach the terminal unless debug is set.
func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
