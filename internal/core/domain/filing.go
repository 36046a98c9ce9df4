package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Common SEC form types.
const (
	FormAnnual    = "10-K"
	FormQuarterly = "10-Q"
	FormCurrent   = "8-K"
)

// SectionFull is the key used when a document has no recognisable item headings.
const SectionFull = "full"

// Company identifies an SEC registrant.
type Company struct {
	// CIK is the Central Index Key without zero padding.
	CIK int64

	// Ticker is the exchange symbol, upper-cased.
	Ticker string

	// Name is the registrant's conformed name.
	Name string
}

// PaddedCIK returns the CIK zero-padded to ten digits as used by data.sec.gov.
func (c Company) PaddedCIK() string {
	return fmt.Sprintf("%010d", c.CIK)
}

// FilingRef points at a single filing in the EDGAR index.
type FilingRef struct {
	CIK             int64
	AccessionNumber string
	Form            string
	FilingDate      time.Time
	ReportDate      time.Time
	PrimaryDocument string
}

// ArchivePath returns the path of the primary document below www.sec.gov.
func (r FilingRef) ArchivePath() string {
	return fmt.Sprintf("/Archives/edgar/data/%s/%s/%s",
		strconv.FormatInt(r.CIK, 10),
		strings.ReplaceAll(r.AccessionNumber, "-", ""),
		r.PrimaryDocument)
}

// URL returns the archive location of the filing's primary document.
func (r FilingRef) URL() string {
	return "https://www.sec.gov" + r.ArchivePath()
}

// Filing is a fetched filing with its text split into sections.
type Filing struct {
	Ref       FilingRef
	Company   Company
	Text      string
	FetchedAt time.Time
	Sections  []Section
}

// Section returns the section with the given key.
func (f *Filing) Section(key string) (*Section, bool) {
	key = NormalizeSectionKey(key)
	for i := range f.Sections {
		if f.Sections[i].Key == key {
			return &f.Sections[i], true
		}
	}
	return nil, false
}

// SectionKeys lists section keys in document order.
func (f *Filing) SectionKeys() []string {
	keys := make([]string, len(f.Sections))
	for i := range f.Sections {
		keys[i] = f.Sections[i].Key
	}
	return keys
}

// Section is one item of a filing, e.g. "Item 1A. Risk Factors".
type Section struct {
	// Key is the normalised identifier ("item_1a", "part_ii_item_1a").
	Key string

	// Title is the heading line as it appeared in the document.
	Title string

	// Content is the section body, heading excluded.
	Content string
}

// NormalizeSectionKey maps user input such as "Item 1A", "1a" or "item_1A"
// onto the canonical section key.
func NormalizeSectionKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(".", "", ",", "", ":", "", "-", "_", " ", "_").Replace(s)
	if s == "" || s == SectionFull {
		return s
	}
	if !strings.Contains(s, "item") {
		s = "item_" + s
	}
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Replace(s, "item", "item_", 1)
	s = strings.ReplaceAll(s, "item__", "item_")
	return strings.Trim(s, "_")
}

// BatchResult is the outcome of one ticker in a batch fetch.
type BatchResult struct {
	Ticker string
	Filing *Filing
	Err    error
}
