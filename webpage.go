package ccwalker

// MaxKeywordLength is the byte-truncation bound applied to every lemma
// token before it is hashed or inserted, in both the vocabulary upsert and
// the per-site join insert. The two paths must truncate identically or a
// website_keywords row can reference a keyword id whose word differs from
// the token the site's term-frequency count was built on.
const MaxKeywordLength = 40

// Webpage is the transient, per-record value produced by ParseRecord and
// consumed by the store. It is never cached beyond that handoff.
type Webpage struct {
	WARCDate              string
	URL                   string
	IdentifiedPayloadType string
	StatusCode            int
	HasStatusCode         bool
	ContentType           string
	ContentLength         int
	HasContentLength      bool
	RawHTML               string
	Title                 string
	HasTitle              bool
	Description           string
	HasDescription        bool
	Links                 []string
	TextBody              string
	HasTextBody           bool
	Language              string
	Lemmas                []string
}

// Ingestible reports whether a Webpage carries everything needed to write
// a website row: title, description and URL must all be present. Pages
// missing any of the three are skipped at the persistence boundary.
func (w *Webpage) Ingestible() bool {
	return w.HasTitle && w.HasDescription && w.URL != ""
}

// TruncateKeyword truncates a lemma to MaxKeywordLength bytes. Truncation
// is at the byte level, not a rune boundary; it can split a multi-byte
// character, but both insert paths call this same function so they always
// agree on the stored token.
func TruncateKeyword(word string) string {
	if len(word) > MaxKeywordLength {
		return word[:MaxKeywordLength]
	}
	return word
}
