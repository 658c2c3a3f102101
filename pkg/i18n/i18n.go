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

// Package i18n holds every user-facing string, in Japanese and English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys
const (
	StyleMixed   = "style.mixed"
	StyleFormal  = "style.formal"
	StylePlain   = "style.plain"
	StyleUnknown = "style.unknown"

	NoticeNoEditor       = "notice.no_editor"
	NoticeEmptySelection = "notice.empty_selection"
	NoticeNoCorrections  = "notice.no_corrections"
	NoticeCancelled      = "notice.cancelled"
	NoticeFailed         = "notice.failed"
	NoticeApplied        = "notice.applied"
	NoticeDiscarded      = "notice.discarded"
	NoticeAIUnavailable  = "notice.ai_unavailable"

	PromptAPIKey      = "prompt.api_key"
	PromptAPIKeyInput = "prompt.api_key_input"
	PromptRationale   = "prompt.rationale"
	PromptApply       = "prompt.apply"

	ChoiceSetKey  = "choice.set_key"
	ChoiceSkip    = "choice.skip"
	ChoiceApply   = "choice.apply"
	ChoiceDiscard = "choice.discard"
	ChoiceOK      = "choice.ok"

	ProgressTitle = "progress.title"
	ProgressRules = "progress.rules"
	ProgressStyle = "progress.style"
	ProgressAI    = "progress.ai"

	StatusIdle    = "status.idle"
	StatusRunning = "status.running"

	RecordAI      = "record.ai"
	DiffOriginal  = "diff.original"
	DiffCorrected = "diff.corrected"
	DiffTitle     = "diff.title"
	ReasonsHeader = "reasons.header"
)

type entry struct {
	key    string
	ja, en string
}

var catalog = []entry{
	{StyleMixed,
		"文体が混在しています（です・ます調: %d箇所、である調: %d箇所）。どちらかに統一することをお勧めします。",
		"Sentence endings are mixed (desu/masu: %d, dearu/da: %d). Consider using one style throughout."},
	{StyleFormal,
		"文体は「です・ます調」で統一されています（%d箇所）。",
		"Sentence endings consistently use the desu/masu style (%d)."},
	{StylePlain,
		"文体は「である調」で統一されています（%d箇所）。",
		"Sentence endings consistently use the dearu/da style (%d)."},
	{StyleUnknown,
		"文末表現から文体を判定できませんでした。",
		"Could not determine the sentence-ending style."},

	{NoticeNoEditor, "アクティブなエディタがありません。", "No active editor."},
	{NoticeEmptySelection, "テキストが選択されていません。", "No text is selected."},
	{NoticeNoCorrections, "修正の必要はありませんでした。", "No corrections needed."},
	{NoticeCancelled, "校正をキャンセルしました。", "Proofreading cancelled."},
	{NoticeFailed, "校正中にエラーが発生しました: %s", "Proofreading failed: %s"},
	{NoticeApplied, "修正を適用しました。", "Corrections applied."},
	{NoticeDiscarded, "修正を破棄しました。", "Corrections discarded."},
	{NoticeAIUnavailable, "AI校正の結果を取得できませんでした。ルールによる修正のみを表示します。", "AI proofreading returned no result. Showing rule-based corrections only."},

	{PromptAPIKey, "AI校正にはAPIキーが必要です。設定しますか？", "AI proofreading needs an API key. Set one now?"},
	{PromptAPIKeyInput, "APIキーを入力してください", "Enter your API key"},
	{PromptRationale, "以下の修正が提案されました:\n%s", "The following corrections were suggested:\n%s"},
	{PromptApply, "修正を適用しますか？", "Apply the corrections?"},

	{ChoiceSetKey, "設定する", "Set key"},
	{ChoiceSkip, "スキップ", "Skip"},
	{ChoiceApply, "適用", "Apply"},
	{ChoiceDiscard, "破棄", "Discard"},
	{ChoiceOK, "OK", "OK"},

	{ProgressTitle, "校正中...", "Proofreading..."},
	{ProgressRules, "ルールを適用しています...", "Applying rules..."},
	{ProgressStyle, "文体を確認しています...", "Checking sentence-ending style..."},
	{ProgressAI, "AIで校正しています...", "Asking the language model..."},

	{StatusIdle, "校正", "Proofread"},
	{StatusRunning, "校正中（クリックで停止）", "Proofreading (click to stop)"},

	{RecordAI, "AI校正: %s", "AI correction: %s"},
	{DiffOriginal, "校正前", "Original"},
	{DiffCorrected, "校正後", "Corrected"},
	{DiffTitle, "%s（校正前 ↔ 校正後）", "%s (original ↔ corrected)"},
	{ReasonsHeader, "校正内容", "Corrections"},
}

func init() {
	for _, e := range catalog {
		if err := message.SetString(language.Japanese, e.key, e.ja); err != nil {
			panic(err)
		}
		if err := message.SetString(language.English, e.key, e.en); err != nil {
			panic(err)
		}
	}
}

// 🌐 Tag maps a config locale ("ja", "en") to a language tag; unknown values fall
// back to Japanese.
func Tag(locale string) language.Tag {
	switch locale {
	case "en":
		return language.English
	default:
		return language.Japanese
	}
}

// 🖨️ Printer returns a message printer for locale
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale))
}

// Japanese is the default printer
func Japanese() *message.Printer {
	return message.NewPrinter(language.Japanese)
}
