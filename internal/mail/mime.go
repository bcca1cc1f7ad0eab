package mail

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// Parsed is what the pipeline gets out of one raw message: a stable
// identity plus a normalized plain-text body.
type Parsed struct {
	MessageID string
	Subject   string
	Body      string
}

// ParseMessage extracts the message id, subject and text body from raw
// RFC822 bytes. The subject and from fields off the envelope are passed in
// as fallbacks for messages with sparse headers. HTML-only messages are
// reduced to text.
func ParseMessage(raw []byte, fallbackSubject string) Parsed {
	p := Parsed{Subject: fallbackSubject}
	if len(raw) == 0 {
		return p
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		// Not RFC822 shaped; treat the whole thing as a plaintext body.
		p.Body = NormalizeBody(string(raw))
		return p
	}

	p.MessageID = strings.TrimSpace(msg.Header.Get("Message-Id"))
	if p.MessageID == "" {
		p.MessageID = strings.TrimSpace(msg.Header.Get("Message-ID"))
	}

	if s := decodeRFC2047(msg.Header.Get("Subject")); s != "" {
		p.Subject = s
	}

	bodyRaw, _ := io.ReadAll(io.LimitReader(msg.Body, 25<<20))
	plain, htmlPart := extractTextParts(msg.Header, bodyRaw)

	body := plain
	if body == "" && htmlPart != "" {
		body = htmlToText(htmlPart)
	}
	if body == "" {
		body = string(bodyRaw)
	}

	p.Body = NormalizeBody(body)
	return p
}

// extractTextParts walks the MIME tree and returns the longest text/plain
// and text/html parts found, transfer-decoding each.
func extractTextParts(h mail.Header, body []byte) (plain, htmlPart string) {
	ct := h.Get("Content-Type")
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeTransferEncoding(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)

		var bestPlain, bestHTML string
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			partCTE := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))
			pMedia, pParams, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
			pMedia = strings.ToLower(pMedia)

			b, _ := io.ReadAll(io.LimitReader(part, 20<<20))
			b = decodeTransferEncoding(b, partCTE)
			if strings.HasPrefix(pMedia, "text/") {
				b = decodeCharset(b, pParams["charset"])
			}

			if strings.HasPrefix(pMedia, "multipart/") {
				pl, ht := extractTextParts(mail.Header(part.Header), b)
				if len(pl) > len(bestPlain) {
					bestPlain = pl
				}
				if len(ht) > len(bestHTML) {
					bestHTML = ht
				}
				continue
			}

			switch {
			case strings.HasPrefix(pMedia, "text/plain"):
				if len(b) > len(bestPlain) {
					bestPlain = string(b)
				}
			case strings.HasPrefix(pMedia, "text/html"):
				if len(b) > len(bestHTML) {
					bestHTML = string(b)
				}
			}
		}
		return bestPlain, bestHTML
	}

	s := decodeTransferEncoding(body, cte)
	s = decodeCharset(s, params["charset"])
	if strings.HasPrefix(mediaType, "text/html") {
		return "", string(s)
	}
	return string(s), ""
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	case "quoted-printable":
		dec := quotedprintable.NewReader(bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	default:
		return b
	}
}

func decodeRFC2047(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	dec := new(mime.WordDecoder)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		b, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(decodeCharset(b, charset)), nil
	}
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

// decodeCharset converts the legacy Japanese encodings still common in SES
// mail to UTF-8. Unknown charsets pass through untouched.
func decodeCharset(b []byte, charset string) []byte {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "iso-2022-jp":
		enc = japanese.ISO2022JP
	case "shift_jis", "shift-jis", "sjis", "cp932", "windows-31j":
		enc = japanese.ShiftJIS
	case "euc-jp":
		enc = japanese.EUCJP
	default:
		return b
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		return b
	}
	return out
}

// htmlToText renders HTML down to the text nodes, preserving rough line
// structure so the section markers survive.
func htmlToText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script,style").Remove()
	doc.Find("br").Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithHtml("\n")
	})
	doc.Find("p,div,li,tr").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	return doc.Text()
}

// NormalizeBody folds halfwidth katakana to fullwidth and fullwidth ASCII
// to halfwidth, then flattens the whitespace variants Japanese mail clients
// produce. Downstream regexes assume this form.
func NormalizeBody(s string) string {
	s = width.Fold.String(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
