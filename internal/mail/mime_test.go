package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessagePlainText(t *testing.T) {
	raw := strings.Join([]string{
		"Message-ID: <abc123@example.com>",
		"Subject: =?UTF-8?Q?SES_=E6=A1=88=E4=BB=B6?=",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"▼案件A",
		"[ 給与 ] 600000円",
	}, "\r\n")

	p := ParseMessage([]byte(raw), "fallback subject")
	assert.Equal(t, "<abc123@example.com>", p.MessageID)
	assert.Equal(t, "SES 案件", p.Subject)
	assert.Contains(t, p.Body, "▼案件A")
	assert.Contains(t, p.Body, "[ 給与 ] 600000円")
	assert.NotContains(t, p.Body, "\r")
}

func TestParseMessageMultipartPrefersPlain(t *testing.T) {
	raw := strings.Join([]string{
		"Message-ID: <m1@example.com>",
		"Subject: hello",
		"Content-Type: multipart/alternative; boundary=XYZ",
		"",
		"--XYZ",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain body here",
		"--XYZ",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>html body here</p></body></html>",
		"--XYZ--",
	}, "\r\n")

	p := ParseMessage([]byte(raw), "")
	assert.Contains(t, p.Body, "plain body here")
	assert.NotContains(t, p.Body, "<p>")
}

func TestParseMessageHTMLOnly(t *testing.T) {
	raw := strings.Join([]string{
		"Message-ID: <m2@example.com>",
		"Subject: html only",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body>▼案件A<br>単価 60万<script>var x=1;</script></body></html>",
	}, "\r\n")

	p := ParseMessage([]byte(raw), "")
	assert.Contains(t, p.Body, "▼案件A\n単価 60万")
	assert.NotContains(t, p.Body, "var x")
}

func TestParseMessageBase64Body(t *testing.T) {
	raw := strings.Join([]string{
		"Message-ID: <m3@example.com>",
		"Subject: b64",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: base64",
		"",
		"aGVsbG8gd29ybGQ=",
	}, "\r\n")

	p := ParseMessage([]byte(raw), "")
	assert.Equal(t, "hello world", strings.TrimSpace(p.Body))
}

func TestParseMessageLegacyJapaneseCharsets(t *testing.T) {
	// Shift_JIS encoded-word subject ("案件") and an ISO-2022-JP body
	// ("日本語"); both still common in SES mail.
	raw := "Message-ID: <jp1@example.com>\r\n" +
		"Subject: =?Shift_JIS?B?iMSMjw==?=\r\n" +
		"Content-Type: text/plain; charset=ISO-2022-JP\r\n" +
		"\r\n" +
		"\x1b$B\x46\x7c\x4b\x5c\x38\x6c\x1b(B\r\n"

	p := ParseMessage([]byte(raw), "")
	assert.Equal(t, "案件", p.Subject)
	assert.Equal(t, "日本語", strings.TrimSpace(p.Body))
}

func TestParseMessageNotRFC822(t *testing.T) {
	p := ParseMessage([]byte("just some text\r\nwith lines"), "subj")
	assert.Equal(t, "subj", p.Subject)
	assert.Equal(t, "just some text\nwith lines", p.Body)
	assert.Empty(t, p.MessageID)
}

func TestParseMessageEmpty(t *testing.T) {
	p := ParseMessage(nil, "s")
	require.Equal(t, "s", p.Subject)
	assert.Empty(t, p.Body)
}

func TestNormalizeBodyFoldsWidth(t *testing.T) {
	// Fullwidth digits, tilde and colon fold to their ASCII forms; kanji
	// and kana are untouched.
	in := "単価：６０万～８０万円 です\r\n次行"
	assert.Equal(t, "単価:60万~80万円 です\n次行", NormalizeBody(in))
}
