// Package book implements an Othello opening book keyed by position hash.
package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"lukechampine.com/frand"

	"github.com/hailam/othelloplay/internal/board"
)

// recordSize is the length of one binary book record:
// 8 bytes position key, 2 bytes move, 2 bytes weight, 4 bytes learn data,
// all big-endian.
const recordSize = 16

// BookEntry represents a single book entry.
type BookEntry struct {
	Move   board.Move
	Weight uint16
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]BookEntry

	// Varied picks among the book moves at random in proportion to their
	// weights. Otherwise Probe always returns the heaviest move.
	Varied bool
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// defaultLines are the three classic replies to f5 and one follow-up each.
var defaultLines = []string{
	"f5 d6 c3 100", // Perpendicular, tiger
	"f5 f6 e6 60",  // Diagonal
	"f5 f4 e3 30",  // Parallel
}

// Default returns the built-in opening book.
func Default() *Book {
	b, err := FromLines(defaultLines)
	if err != nil {
		panic(err)
	}
	return b
}

// FromLines builds a book from text lines of moves from the start position,
// each optionally ending in a weight (default 1). Every move of a line is
// recorded for the position it is played from.
func FromLines(lines []string) (*Book, error) {
	b := New()
	for _, line := range lines {
		if err := b.AddLine(line); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// AddLine adds one text line (see FromLines).
func (b *Book) AddLine(line string) error {
	fields := strings.Fields(line)
	weight := uint16(1)
	if n := len(fields); n > 0 {
		var w uint16
		if _, err := fmt.Sscanf(fields[n-1], "%d", &w); err == nil {
			weight = w
			fields = fields[:n-1]
		}
	}

	pos := board.NewPosition()
	for _, f := range fields {
		m, err := board.ParseMove(f)
		if err != nil {
			return fmt.Errorf("book line %q: %w", line, err)
		}
		if !pos.IsLegal(m) {
			return fmt.Errorf("book line %q: illegal move %s", line, m)
		}
		b.Add(pos.Hash, m, weight)
		pos = pos.Apply(m)
	}
	return nil
}

// Add records move for the position with the given hash. Adding a move that
// is already present raises its weight instead.
func (b *Book) Add(key uint64, m board.Move, weight uint16) {
	list := b.entries[key]
	for i := range list {
		if list[i].Move == m {
			if w := uint32(list[i].Weight) + uint32(weight); w > 0xFFFF {
				list[i].Weight = 0xFFFF
			} else {
				list[i].Weight = uint16(w)
			}
			return
		}
	}
	b.entries[key] = append(list, BookEntry{Move: m, Weight: weight})
}

// Load loads a binary book from a file.
func Load(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadReader(file)
}

// LoadReader loads a binary book from a reader.
func LoadReader(r io.Reader) (*Book, error) {
	book := New()

	var entry [recordSize]byte
	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read book record: %w", err)
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		move := board.Move(int8(binary.BigEndian.Uint16(entry[8:10])))
		weight := binary.BigEndian.Uint16(entry[10:12])

		// Passes never come from a book
		if move.IsPlacement() {
			book.entries[key] = append(book.entries[key], BookEntry{
				Move:   move,
				Weight: weight,
			})
		}
	}

	return book, nil
}

// WriteTo writes the book in binary form, sorted by key.
func (b *Book) WriteTo(w io.Writer) (int64, error) {
	keys := make([]uint64, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var written int64
	var rec [recordSize]byte
	for _, k := range keys {
		for _, e := range sortedByWeight(b.entries[k]) {
			binary.BigEndian.PutUint64(rec[0:8], k)
			binary.BigEndian.PutUint16(rec[8:10], uint16(e.Move))
			binary.BigEndian.PutUint16(rec[10:12], e.Weight)
			binary.BigEndian.PutUint32(rec[12:16], 0)
			n, err := w.Write(rec[:])
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Probe looks up a position in the book. Entries that are not legal in pos
// are ignored. The heaviest entry is returned unless the book is Varied.
func (b *Book) Probe(pos board.Position) (board.Move, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return board.NoMove, false
	}
	if !b.Varied {
		return entries[0].Move, true
	}
	return pickWeighted(entries), true
}

// pickWeighted selects an entry at random in proportion to its weight.
func pickWeighted(entries []BookEntry) board.Move {
	totalWeight := 0
	for _, e := range entries {
		totalWeight += int(e.Weight)
	}
	if totalWeight == 0 {
		return entries[0].Move
	}

	r := frand.Intn(totalWeight)
	cumulative := 0
	for _, e := range entries {
		cumulative += int(e.Weight)
		if r < cumulative {
			return e.Move
		}
	}
	return entries[0].Move
}

// ProbeAll returns the legal book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos board.Position) []BookEntry {
	if b == nil {
		return nil
	}

	var result []BookEntry
	for _, e := range b.entries[pos.Hash] {
		if pos.IsLegal(e.Move) {
			result = append(result, e)
		}
	}
	return sortedByWeight(result)
}

// sortedByWeight returns a copy sorted by weight (highest first), then by move.
func sortedByWeight(entries []BookEntry) []BookEntry {
	result := make([]BookEntry, len(entries))
	copy(result, entries)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weight != result[j].Weight {
			return result[i].Weight > result[j].Weight
		}
		return result[i].Move < result[j].Move
	})
	return result
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
