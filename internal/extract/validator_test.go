package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSplitsCommaSkills(t *testing.T) {
	out := `{"案件内容":"A","必須スキル":"Java, SQL","勤務地":"東京","単価":"80万円"}`

	l, err := Extract(out)
	require.NoError(t, err)
	assert.Equal(t, "A", l.Description)
	assert.Equal(t, []string{"Java", "SQL"}, l.RequiredSkills)
	assert.Equal(t, "東京", l.Location)
	assert.Equal(t, "80万円", l.UnitPrice)
}

func TestExtractSurroundingProseAndFences(t *testing.T) {
	out := "結果は以下の通りです。\n```json\n" +
		`{"案件内容":"開発","必須スキル":["Go"],"尚可スキル":["AWS"],"勤務地":"大阪","単価":"70万"}` +
		"\n```\n以上です。"

	l, err := Extract(out)
	require.NoError(t, err)
	assert.Equal(t, "開発", l.Description)
	assert.Equal(t, []string{"Go"}, l.RequiredSkills)
	assert.Equal(t, []string{"AWS"}, l.OptionalSkills)
}

func TestExtractNoJSON(t *testing.T) {
	_, err := Extract("すみません、抽出できませんでした。")
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestExtractMissingField(t *testing.T) {
	_, err := Extract(`{"案件内容":"A"}`)

	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, FieldRequiredSkills, mf.Field)
}

func TestExtractInvalidJSONCarriesOutput(t *testing.T) {
	// Unrepairable: the braces enclose something jsonrepair cannot fix into
	// an object the validator can use.
	_, err := Extract(`{"案件内容": }`)
	if err == nil {
		// jsonrepair may salvage this into {"案件内容": null}; then the
		// failure must be a missing-field error instead.
		t.Skip("repaired into a parseable object")
	}
	var mf *MissingFieldError
	var ij *InvalidJSONError
	assert.True(t, errors.As(err, &mf) || errors.As(err, &ij))
}

func TestExtractRepairsSloppyJSON(t *testing.T) {
	// Trailing commas, the classic model output defect.
	out := `{"案件内容":"A","必須スキル":["Java",],"勤務地":"東京","単価":"80万円",}`

	l, err := Extract(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Java"}, l.RequiredSkills)
}

func TestExtractManyArray(t *testing.T) {
	out := `[
	  {"案件内容":"案件A","必須スキル":["Java"],"勤務地":"東京","単価":"60万円"},
	  {"案件内容":"案件B","必須スキル":"Python, SQL","勤務地":"名古屋","単価":"時給2000円"}
	]`

	ls, err := ExtractMany(out)
	require.NoError(t, err)
	require.Len(t, ls, 2)
	assert.Equal(t, "案件A", ls[0].Description)
	assert.Equal(t, []string{"Python", "SQL"}, ls[1].RequiredSkills)
	assert.Equal(t, "時給2000円", ls[1].UnitPrice)
}

func TestExtractManySingleObject(t *testing.T) {
	out := `{"案件内容":"A","必須スキル":[],"勤務地":"","単価":""}`

	ls, err := ExtractMany(out)
	require.NoError(t, err)
	require.Len(t, ls, 1)
}

func TestExtractManyMissingFieldInElement(t *testing.T) {
	out := `[{"案件内容":"A","必須スキル":[],"勤務地":"","単価":""},{"案件内容":"B"}]`

	_, err := ExtractMany(out)
	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
}

func TestSkillListDropsEmptyElements(t *testing.T) {
	l, err := Extract(`{"案件内容":"A","必須スキル":" Java ,, SQL , ","勤務地":"x","単価":"y"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Java", "SQL"}, l.RequiredSkills)
}
