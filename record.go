package ccwalker

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/nlnwa/gowarc"
	"golang.org/x/net/html"
)

// RecordParseError reports that a WARC record could not be parsed: its body
// could not be read or is not valid UTF-8, or its HTML failed to parse.
type RecordParseError struct {
	Reason string
}

func (e *RecordParseError) Error() string {
	return fmt.Sprintf("record parse error: %s", e.Reason)
}

// recordMeta carries the WARC header values a parsed page keeps.
type recordMeta struct {
	Date                  string
	TargetURI             string
	IdentifiedPayloadType string
	ContentLength         string
}

// ParseRecord turns one WARC response record into a *Webpage, or returns
// (nil, nil) when the record should be silently dropped: non-HTML content
// type, empty body, or a non-English text body.
//
// rec must already be a "response" record; the Archive Reader filters by
// WARC-Type before calling this. dict is the lemma dictionary used to
// lemmatize the extracted text.
func ParseRecord(rec gowarc.WarcRecord, dict *LemmaDictionary) (*Webpage, error) {
	body, err := readRecordBody(rec)
	if err != nil {
		return nil, &RecordParseError{Reason: err.Error()}
	}

	meta := recordMeta{
		Date:                  headerValue(rec, gowarc.WarcDate),
		TargetURI:             headerValue(rec, gowarc.WarcTargetURI),
		IdentifiedPayloadType: headerValue(rec, gowarc.WarcIdentifiedPayloadType),
		ContentLength:         headerValue(rec, gowarc.ContentLength),
	}

	return parsePayload(meta, body, dict)
}

// parsePayload decodes the embedded HTTP response in body, extracts its
// headers and HTML, runs the text pipeline and language filter, and builds
// the Webpage.
func parsePayload(meta recordMeta, body string, dict *LemmaDictionary) (*Webpage, error) {
	if !utf8.ValidString(body) {
		return nil, &RecordParseError{Reason: "body is not valid UTF-8"}
	}
	if body == "" {
		return nil, nil
	}

	var contentType string
	var statusCode int
	hasStatusCode := false
	var htmlBody strings.Builder
	headerProcessed := false

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "Content-Type"):
			contentType = extractHeaderValue(line)
			headerProcessed = true
			if contentType == "" || !strings.Contains(contentType, "text/html") {
				return nil, nil
			}
		case strings.HasPrefix(line, "HTTP"):
			if code, ok := extractStatusCode(line); ok {
				statusCode = code
				hasStatusCode = true
			}
			headerProcessed = true
		case headerProcessed:
			if strings.Contains(line, "<html") || htmlBody.Len() > 0 {
				htmlBody.WriteString(line)
				htmlBody.WriteByte('\n')
			}
		}
	}

	if contentType == "" || !strings.Contains(contentType, "text/html") || htmlBody.Len() == 0 {
		return nil, nil
	}

	doc, err := html.Parse(strings.NewReader(htmlBody.String()))
	if err != nil {
		return nil, &RecordParseError{Reason: err.Error()}
	}

	parsed, err := ParsePageRecoverable(doc, meta.TargetURI)
	if err != nil {
		return nil, err
	}

	if parsed.Text == "" {
		return nil, nil
	}

	info := whatlanggo.Detect(parsed.Text)
	if info.Lang != whatlanggo.Eng {
		return nil, nil
	}

	page := &Webpage{
		WARCDate:              meta.Date,
		URL:                   meta.TargetURI,
		IdentifiedPayloadType: meta.IdentifiedPayloadType,
		StatusCode:            statusCode,
		HasStatusCode:         hasStatusCode,
		ContentType:           contentType,
		RawHTML:               htmlBody.String(),
		Title:                 parsed.Title,
		HasTitle:              parsed.HasTitle,
		Description:           parsed.Description,
		HasDescription:        parsed.HasDesc,
		Links:                 parsed.Links,
		TextBody:              parsed.Text,
		HasTextBody:           true,
		Language:              info.Lang.String(),
		Lemmas:                Lemmatize(strings.ToLower(parsed.Text), dict),
	}

	if meta.ContentLength != "" {
		if n, err := strconv.Atoi(meta.ContentLength); err == nil {
			page.ContentLength = n
			page.HasContentLength = true
		}
	}

	return page, nil
}

func headerValue(rec gowarc.WarcRecord, name string) string {
	fields := rec.WarcHeader()
	if fields == nil {
		return ""
	}
	return fields.Get(name)
}

func readRecordBody(rec gowarc.WarcRecord) (string, error) {
	block := rec.Block()
	reader, err := block.RawBytes()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if readErr != nil {
			break
		}
	}
	return sb.String(), nil
}

func extractHeaderValue(line string) string {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(line[idx+1:])
}

func extractStatusCode(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
