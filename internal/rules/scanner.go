package rules

import (
	"encoding/xml"
	"io"
	"strings"
)

// Failure records one record-local parse failure. A failure never aborts the
// run; it is reported alongside the aggregate counts.
type Failure struct {
	SourceID string
	Detail   string
}

// Report aggregates scan counts for validation against independently
// obtained ground truth (see CountStatementTags).
type Report struct {
	Records  int
	Failed   int
	Failures []Failure

	Grants    int
	StatAdds  int
	Modifies  int
	Specifics int

	// Other tallies recognized statement kinds that produce no rows.
	Other map[Kind]int
	// UnknownTags tallies raw spellings the normalizer did not recognize,
	// so new or rare element kinds are visible instead of silently dropped.
	UnknownTags map[string]int
}

// Scanner streams top-level RulesElement records off an XML document one at
// a time; the document is never materialized in full.
type Scanner struct {
	dec    *xml.Decoder
	report Report
}

// NewScanner returns a scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		dec: xml.NewDecoder(r),
		report: Report{
			Other:       make(map[Kind]int),
			UnknownTags: make(map[string]int),
		},
	}
}

// Report returns the aggregate counts gathered so far.
func (s *Scanner) Report() *Report {
	return &s.report
}

// Next returns the next complete record, skipping past records that fail to
// parse (those are added to the report). It returns io.EOF when the stream
// is exhausted. Any other error is a document-level failure and fatal.
func (s *Scanner) Next() (*Record, error) {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "RulesElement" {
			continue
		}

		rec, err := s.parseRecord(start)
		if err != nil {
			return nil, err
		}
		if rec.SourceID == "" || rec.Type == "" {
			s.report.Failed++
			s.report.Failures = append(s.report.Failures, Failure{
				SourceID: rec.SourceID,
				Detail:   missingAttrDetail(rec),
			})
			continue
		}

		s.report.Records++
		s.report.Grants += len(rec.Grants)
		s.report.StatAdds += len(rec.StatAdds)
		s.report.Modifies += len(rec.Modifies)
		s.report.Specifics += len(rec.Specifics)
		return rec, nil
	}
}

func missingAttrDetail(rec *Record) string {
	switch {
	case rec.SourceID == "" && rec.Type == "":
		return "missing internal-id and type"
	case rec.SourceID == "":
		return "missing internal-id"
	default:
		return "missing type"
	}
}

// parseRecord consumes tokens up to the record's closing tag. Character data
// directly under the record element is free description text; fragments are
// kept verbatim and concatenated in document order.
func (s *Scanner) parseRecord(start xml.StartElement) (*Record, error) {
	rec := &Record{
		SourceID:     attr(start, "internal-id"),
		Name:         attr(start, "name"),
		Type:         attr(start, "type"),
		SourceBook:   attr(start, "source"),
		RevisionDate: attr(start, "revision-date"),
	}

	ordinal := 0
	var remainder []string

	for {
		tok, err := s.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "specific":
				key := attr(t, "name")
				val, err := s.elementText()
				if err != nil {
					return nil, err
				}
				rec.Specifics = append(rec.Specifics, Specific{
					Key:     key,
					Value:   strings.TrimSpace(val),
					Ordinal: len(rec.Specifics),
				})
			case "rules":
				if err := s.parseRules(rec, &ordinal); err != nil {
					return nil, err
				}
			default:
				if err := s.dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.CharData:
			if text := string(t); strings.TrimSpace(text) != "" {
				remainder = append(remainder, text)
			}
		case xml.EndElement:
			rec.RemainderText = strings.TrimSpace(strings.Join(remainder, ""))
			return rec, nil
		}
	}
}

// parseRules walks the statements inside a rules element in document order.
// The shared ordinal makes declaration order total within the record, across
// statement kinds.
func (s *Scanner) parseRules(rec *Record, ordinal *int) error {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch kind := NormalizeTag(t.Name.Local); kind {
			case KindGrant:
				granted := attr(t, "name")
				grantedType := attr(t, "type")
				if granted != "" && grantedType != "" {
					rec.Grants = append(rec.Grants, Grant{
						Granted:     granted,
						GrantedType: grantedType,
						Requires:    attr(t, "requires"),
						Level:       attrFold(t, "level"),
						Ordinal:     *ordinal,
					})
					*ordinal++
				}
			case KindStatAdd:
				stat := attr(t, "name")
				value := attr(t, "value")
				if stat != "" && value != "" {
					rec.StatAdds = append(rec.StatAdds, StatAdd{
						Stat:      stat,
						Value:     value,
						BonusType: attr(t, "type"),
						Requires:  attr(t, "requires"),
						Ordinal:   *ordinal,
					})
					*ordinal++
				}
			case KindModify:
				target := attr(t, "name")
				field := attrFold(t, "field")
				if target != "" && field != "" {
					rec.Modifies = append(rec.Modifies, Modify{
						TargetName:   target,
						TargetType:   attr(t, "type"),
						Field:        field,
						Value:        attr(t, "value"),
						ListAddition: attr(t, "list-addition"),
						Requires:     attr(t, "requires"),
						Ordinal:      *ordinal,
					})
					*ordinal++
				}
			case KindUnknown:
				s.report.UnknownTags[t.Name.Local]++
			default:
				s.report.Other[kind]++
			}
			if err := s.dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

// elementText consumes the current element to its closing tag and returns
// the concatenated character data, including text inside nested elements.
func (s *Scanner) elementText() (string, error) {
	var sb strings.Builder
	depth := 0
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if depth == 0 {
				return sb.String(), nil
			}
			depth--
		}
	}
}

// attr returns the trimmed value of the named attribute, or "".
func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// attrFold is attr with case-insensitive name matching; the dump writes a
// few attributes with inconsistent casing (Level, Field).
func attrFold(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}
