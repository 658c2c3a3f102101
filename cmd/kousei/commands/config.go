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

	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/config"
	"github.com/walteh/kousei/pkg/log"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read or write configuration values",
	}

	var reveal bool
	get := &cobra.Command{
		Use:       "get KEY",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := opts.Store.Get(args[0])
			if err != nil {
				return err
			}
			if args[0] == config.KeyAPIKey && !reveal {
				value = config.MaskSecret(value)
			}
			log.FromContext(cmd.Context()).Println(value)
			return nil
		},
	}
	get.Flags().BoolVar(&reveal, "reveal", false, "print secrets in full")

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Write one configuration value",
		Long: `Set writes KEY to the config file, creating it if needed.
disabled_rules takes a comma-separated list of rule ids.`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := opts.Store.Set(ctx, args[0], args[1]); err != nil {
				return err
			}
			log.FromContext(ctx).Successf("%s updated in %s", args[0], opts.Store.Path())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.FromContext(cmd.Context()).Println(opts.Store.Path())
			return nil
		},
	}

	cmd.AddCommand(get, set, path)
	return cmd
}
