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

package ai

import (
	"strings"
)

// Sentinel markers around the editable span of a selection
const (
	MarkerStart = "<<<KOUSEI_TARGET_START>>>"
	MarkerEnd   = "<<<KOUSEI_TARGET_END>>>"
)

// SelectionContext is the verbatim document text around a selection
type SelectionContext struct {
	Before string
	After  string
}

const baseInstruction = `あなたは日本語の文章校正の専門家です。与えられた文章を校正し、次のJSON形式のみで回答してください。JSON以外の文字は出力しないでください。

{"corrected": "校正後の文章", "reason": "修正内容の要約"}

校正の優先順位:
1. 誤字・脱字の修正
2. 不適切な敬語表現の修正
3. 冗長な表現の簡潔化
4. 分かりにくい表現の明確化
5. 文末表現の維持: 元の文体（です・ます調／である調）を変更しないこと

修正が不要な場合は、元の文章をそのまま "corrected" に入れ、"reason" にその旨を書いてください。`

const selectionInstruction = `

ユーザーの文章では、校正対象の部分が ` + MarkerStart + ` と ` + MarkerEnd + ` で囲まれています。
- マーカーで囲まれた部分だけを校正してください。
- 前後の文章は文脈として参照するだけで、変更しないでください。
- "corrected" には、マーカーで囲まれた部分の校正結果のみを入れてください。マーカー自体は含めないでください。`

// 📝 SystemPrompt returns the instruction sent as the system message
func SystemPrompt(withSelection bool) string {
	if withSelection {
		return baseInstruction + selectionInstruction
	}
	return baseInstruction
}

// 💬 UserMessage frames target for the model. With a selection, target is wrapped in
// sentinel markers and embedded in its surrounding text.
func UserMessage(target string, sel *SelectionContext) string {
	if sel == nil {
		return target
	}

	var b strings.Builder
	b.Grow(len(sel.Before) + len(target) + len(sel.After) + len(MarkerStart) + len(MarkerEnd))
	b.WriteString(sel.Before)
	b.WriteString(MarkerStart)
	b.WriteString(target)
	b.WriteString(MarkerEnd)
	b.WriteString(sel.After)
	return b.String()
}
