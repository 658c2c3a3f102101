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

package rules

import (
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/kousei/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 🔨 Compile turns user-defined rules from the configuration into Rules.
// Replacements are templates, so $1 and ${name} refer to capture groups.
func Compile(defs []config.Rule) ([]Rule, error) {
	if err := ValidateRules(defs); err != nil {
		return nil, err
	}

	out := make([]Rule, 0, len(defs))
	for i, def := range defs {
		pattern, err := regexp.Compile(def.Pattern)
		if err != nil {
			return nil, errors.Errorf("rule %d: compiling pattern: %w", i, err)
		}

		rule := Rule{
			ID:          def.ID,
			Description: def.Description,
			Pattern:     pattern,
			Replacement: Template(def.Replacement),
			Files:       def.Files,
		}
		if rule.ID == "" {
			rule.ID = fmt.Sprintf("custom-%d", i)
		}

		switch {
		case def.FollowedBy != "":
			la, err := regexp.Compile(`^(?:` + def.FollowedBy + `)`)
			if err != nil {
				return nil, errors.Errorf("rule %d: compiling followed_by: %w", i, err)
			}
			rule.Lookahead = Lookahead{Pattern: la}
		case def.NotFollowedBy != "":
			la, err := regexp.Compile(`^(?:` + def.NotFollowedBy + `)`)
			if err != nil {
				return nil, errors.Errorf("rule %d: compiling not_followed_by: %w", i, err)
			}
			rule.Lookahead = Lookahead{Pattern: la, Negate: true}
		}

		out = append(out, rule)
	}

	return out, nil
}

// ✅ ValidateRules checks user-defined rules before compilation
func ValidateRules(defs []config.Rule) error {
	for i, def := range defs {
		if def.Pattern == "" {
			return errors.Errorf("rule %d: pattern is required", i)
		}
		if def.Description == "" {
			return errors.Errorf("rule %d: description is required", i)
		}
		if def.FollowedBy != "" && def.NotFollowedBy != "" {
			return errors.Errorf("rule %d: followed_by and not_followed_by are mutually exclusive", i)
		}
		for _, glob := range def.Files {
			if !doublestar.ValidatePattern(glob) {
				return errors.Errorf("rule %d: invalid files glob %q", i, glob)
			}
		}
	}
	return nil
}

// 📦 Load returns the built-in rules minus any disabled ones, followed by the
// user-defined rules from cfg.
func Load(cfg *config.Config) ([]Rule, error) {
	custom, err := Compile(cfg.Rules)
	if err != nil {
		return nil, errors.Errorf("compiling custom rules: %w", err)
	}
	return append(Without(Defaults(), cfg.DisabledRules), custom...), nil
}
