package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `お世話になっております。
下記案件のご紹介です。

▼Javaエンジニア募集
[ 給与 ] 600000円
[ 場所 ] 東京都渋谷区
長期案件です。

◆インフラエンジニア
[ 給与 ] 時給3000円
[ 場所 ] 大阪
`

func TestParseSections(t *testing.T) {
	ls := ParseSections(sampleBody)
	require.Len(t, ls, 2)

	assert.Equal(t, "Javaエンジニア募集", ls[0].Description)
	assert.Equal(t, "60万", ls[0].UnitPrice) // normalized on the way in
	assert.Equal(t, "東京都渋谷区", ls[0].Location)

	assert.Equal(t, "インフラエンジニア", ls[1].Description)
	assert.Equal(t, "", ls[1].UnitPrice) // hourly rates are excluded
	assert.Equal(t, "大阪", ls[1].Location)
}

func TestParseSectionsMissingLabels(t *testing.T) {
	ls := ParseSections("▼タイトルのみ\n本文に項目ラベルなし\n")
	require.Len(t, ls, 1)
	assert.Equal(t, "タイトルのみ", ls[0].Description)
	assert.Equal(t, "", ls[0].UnitPrice)
	assert.Equal(t, "", ls[0].Location)
}

func TestParseSectionsNoMarkers(t *testing.T) {
	body := strings.Repeat("あ", 250)

	ls := ParseSections(body)
	require.Len(t, ls, 1)

	got := []rune(ls[0].Description)
	assert.LessOrEqual(t, len(got), previewLimit+3)
	assert.True(t, strings.HasSuffix(ls[0].Description, "..."))
	assert.Equal(t, strings.Repeat("あ", previewLimit), string(got[:previewLimit]))
	assert.Equal(t, "", ls[0].UnitPrice)
	assert.Equal(t, "", ls[0].Location)
}

func TestParseSectionsShortBodyNotTruncated(t *testing.T) {
	ls := ParseSections("短い本文")
	require.Len(t, ls, 1)
	assert.Equal(t, "短い本文", ls[0].Description)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("", "BODY")
	assert.Contains(t, p, "BODY")
	assert.Contains(t, p, FieldRequiredSkills)

	p = BuildPrompt("extract from: %s please", "BODY")
	assert.Equal(t, "extract from: BODY please", p)

	p = BuildPrompt("no placeholder", "BODY")
	assert.Equal(t, "no placeholder\n\nBODY", p)
}
