package extract

// scanner tracks brace depth across calls so a span may be completed by a
// later chunk. Only ASCII bytes matter, so it walks bytes rather than runes.
type scanner struct {
	quoteAware bool

	depth    int
	start    int // offset of the open span's '{', -1 outside a span
	inString bool
	escaped  bool
}

func newScanner(mode Mode) *scanner {
	return &scanner{quoteAware: mode == ModeQuoteAware, start: -1}
}

// scan walks buf[from:] and calls closed with the inclusive bounds of every
// span whose braces balance. Text outside spans is skipped.
func (s *scanner) scan(buf string, from int, closed func(start, end int)) {
	for i := from; i < len(buf); i++ {
		ch := buf[i]

		if s.depth == 0 {
			if ch == '{' {
				s.start = i
				s.depth = 1
			}
			continue
		}

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case ch == '\\':
				s.escaped = true
			case ch == '"':
				s.inString = false
			}
			continue
		}

		switch ch {
		case '"':
			s.inString = s.quoteAware
		case '{':
			s.depth++
		case '}':
			s.depth--
			if s.depth == 0 {
				start := s.start
				s.start = -1
				closed(start, i)
			}
		}
	}
}

// shift rebases the open span after the caller drops n leading bytes.
func (s *scanner) shift(n int) {
	if s.start >= 0 {
		s.start -= n
	}
}
