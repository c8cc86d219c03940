package rules

import (
	"bufio"
	"io"
)

// CountStatementTags counts statement start tags in the raw byte stream,
// independent of the XML decoder. It is the parity check for a scan: every
// open tag whose name normalizes to a known kind is counted once, with case
// variants folded together. Closing tags contribute nothing (the name after
// "</" starts with a non-name byte only after the slash is consumed, so the
// collected name is checked the same way and "/grant" never normalizes).
func CountStatementTags(r io.Reader) (map[Kind]int, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	counts := make(map[Kind]int)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			return counts, nil
		}
		if err != nil {
			return nil, err
		}
		if b != '<' {
			continue
		}
		name, err := readTagName(br)
		if err != nil {
			return nil, err
		}
		if k := NormalizeTag(name); k != KindUnknown {
			counts[k]++
		}
	}
}

func readTagName(br *bufio.Reader) (string, error) {
	var name []byte
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			return string(name), nil
		}
		if err != nil {
			return "", err
		}
		if isNameByte(c) {
			name = append(name, c)
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return "", err
		}
		return string(name), nil
	}
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
