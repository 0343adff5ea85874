package vcd

// ShortIDGen produces the unbounded, deterministic supply of VCD short
// identifiers described in spec.md §4.B: base-94 digits drawn from
// printable ASCII 33..126, little-endian (position 0 is the
// least-significant digit; a carry out of the most-significant position
// appends a new, more-significant byte).
type ShortIDGen struct {
	next []byte
}

const (
	minDigit = 33  // '!'
	maxDigit = 126 // '~'
	base     = maxDigit - minDigit + 1
)

// NewShortIDGen returns a generator whose first call to Next yields the
// smallest id, "!".
func NewShortIDGen() *ShortIDGen {
	return &ShortIDGen{next: []byte{minDigit}}
}

// Next returns the next short id and advances the generator. The
// returned slice is owned by the caller (a fresh copy is made each call).
func (g *ShortIDGen) Next() []byte {
	id := make([]byte, len(g.next))
	copy(id, g.next)
	g.advance()
	return id
}

func (g *ShortIDGen) advance() {
	for i := 0; i < len(g.next); i++ {
		if g.next[i] < maxDigit {
			g.next[i]++
			return
		}
		g.next[i] = minDigit
	}
	g.next = append(g.next, minDigit)
}

// Compare orders two short ids the way they are produced: shorter ids
// first, and among equal-length ids by magnitude as little-endian base-94
// numerals (compare the most-significant — last — digit first). This is
// the "length-then-lex" order spec.md's generator property is checked
// against.
func Compare(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
