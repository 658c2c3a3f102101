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
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/kousei/cmd/kousei/opts"
	"github.com/walteh/kousei/pkg/log"
	"github.com/walteh/kousei/pkg/status"
)

// NewRestoreCmd creates the restore command
func NewRestoreCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore FILE",
		Short: "Undo the last applied correction",
		Long:  `Restore puts FILE.bak, written by the last applied correction, back in place.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return errors.Errorf("resolving %s: %w", args[0], err)
			}
			name := filepath.Base(abs)
			mgr := status.New(filepath.Dir(abs), zerolog.Ctx(ctx))
			if err := mgr.RestoreFile(ctx, name); err != nil {
				return errors.Errorf("restoring %s: %w", args[0], err)
			}

			info, err := mgr.GetFileInfo(ctx, name)
			if err != nil {
				return err
			}
			log.FromContext(ctx).Success(status.NewDefaultFileFormatter().FormatFileOperation(info.Path, info.Status))
			return nil
		},
	}

	return cmd
}
