package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/kousei/pkg/i18n"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantStyle  Style
		wantCounts Counts
	}{
		{
			name:       "formal_only",
			text:       "今日は晴れです。明日は雨です。明後日も雨です。",
			wantStyle:  Formal,
			wantCounts: Counts{Formal: 3},
		},
		{
			name:       "plain_only",
			text:       "これはペンである。それは本だ。",
			wantStyle:  Plain,
			wantCounts: Counts{Plain: 2},
		},
		{
			name:       "mixed",
			text:       "これはペンです。それは本である。行きます。",
			wantStyle:  Mixed,
			wantCounts: Counts{Plain: 1, Formal: 2},
		},
		{
			name:       "no_recognized_endings",
			text:       "こんにちは。さようなら",
			wantStyle:  Unknown,
			wantCounts: Counts{},
		},
		{
			name:       "ending_without_period_not_counted",
			text:       "これはペンです\nそれは本だ",
			wantStyle:  Unknown,
			wantCounts: Counts{},
		},
		{
			name:      "empty",
			text:      "",
			wantStyle: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.text)
			assert.Equal(t, tt.wantStyle, got.Style)
			assert.Equal(t, tt.wantCounts, got.Counts)
		})
	}
}

func TestSuggestion(t *testing.T) {
	mixed := Analyze("これはペンです。それは本である。行きます。")
	s := Suggestion(mixed)
	assert.Contains(t, s, "2")
	assert.Contains(t, s, "1")
	assert.Contains(t, s, "混在")

	assert.Contains(t, Suggestion(Analyze("晴れです。")), "です・ます調")
	assert.Contains(t, Suggestion(Analyze("晴れだ。")), "である調")
	assert.Equal(t, "文末表現から文体を判定できませんでした。", Suggestion(Analyze("")))

	en := SuggestionIn(i18n.Printer("en"), mixed)
	assert.Equal(t, "Sentence endings are mixed (desu/masu: 2, dearu/da: 1). Consider using one style throughout.", en)
}

func TestStyleString(t *testing.T) {
	assert.Equal(t, "formal", Formal.String())
	assert.Equal(t, "plain", Plain.String())
	assert.Equal(t, "mixed", Mixed.String())
	assert.Equal(t, "unknown", Unknown.String())
}
