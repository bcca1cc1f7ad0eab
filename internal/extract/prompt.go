package extract

import (
	"strings"
)

// DefaultPrompt is the extraction instruction sent to the model when the
// config does not override it. It asks for a JSON array with one object per
// ▼/◆-marked listing, using the field names the validator enforces.
const DefaultPrompt = `以下はSES案件メールの本文です。本文中の各案件について項目を抽出し、JSON形式で返してください。

### 抽出ルール:
1. 各案件は「▼」または「◆」で始まります
2. 案件ごとに以下の項目を抽出してください:
- 案件内容（仕事の詳細）
- 必須スキル（必須技術・資格）
- 尚可スキル（あれば良い技術）
- 勤務地（都道府県または市区町村）
- 単価（"¥"や"円"を含む文字列）

### 出力形式:
[
  {
    "案件内容": "...",
    "必須スキル": ["...", "..."],
    "尚可スキル": ["...", "..."],
    "勤務地": "...",
    "単価": "..."
  }
]

- 有効なJSON配列のみを出力してください
- 余計な説明は含めないでください
- 項目が存在しない場合は空にしてください

### メール本文:
%s

### JSON出力:`

// BuildPrompt renders the extraction prompt for one email body. The
// template is configuration data; a "%s" placeholder marks where the body
// goes, and a template without one gets the body appended.
func BuildPrompt(template, body string) string {
	t := strings.TrimSpace(template)
	if t == "" {
		t = DefaultPrompt
	}
	if strings.Contains(t, "%s") {
		return strings.Replace(t, "%s", body, 1)
	}
	return t + "\n\n" + body
}
