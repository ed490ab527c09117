package sourcemap

import (
	"strings"

	"github.com/cockroachdb/errors"
)

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		t[base64Alphabet[i]] = int8(i)
	}
	return t
}()

const (
	vlqShift        = 5
	vlqContinuation = 1 << vlqShift
	vlqMask         = vlqContinuation - 1
)

func decodeVLQ(s string, pos int) (int, int, error) {
	var result, shift int
	for {
		if pos >= len(s) {
			return 0, pos, errors.New("sourcemap: truncated VLQ value")
		}
		digit := base64Values[s[pos]]
		if digit < 0 {
			return 0, pos, errors.Newf("sourcemap: invalid base64 character %q at %d", s[pos], pos)
		}
		pos++
		result += int(digit&vlqMask) << shift
		shift += vlqShift
		if digit&vlqContinuation == 0 {
			break
		}
		if shift > 60 {
			return 0, pos, errors.New("sourcemap: VLQ value overflows")
		}
	}
	v := result >> 1
	if result&1 != 0 {
		v = -v
	}
	return v, pos, nil
}

func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinuation
		}
		b.WriteByte(base64Alphabet[digit])
		if u == 0 {
			return
		}
	}
}

func decodeMappings(s string, sources int) ([]Entry, error) {
	var (
		entries                   []Entry
		line, genCol              int
		source, origLine, origCol int
		fields                    [5]int
	)
	for i := 0; i < len(s); {
		switch s[i] {
		case ';':
			line++
			genCol = 0
			i++
			continue
		case ',':
			i++
			continue
		}

		n := 0
		for i < len(s) && s[i] != ',' && s[i] != ';' {
			if n == len(fields) {
				return nil, errors.Newf("sourcemap: segment on line %d has too many fields", line)
			}
			v, next, err := decodeVLQ(s, i)
			if err != nil {
				return nil, err
			}
			fields[n] = v
			n++
			i = next
		}
		if n != 1 && n != 4 && n != 5 {
			return nil, errors.Newf("sourcemap: segment on line %d has %d fields", line, n)
		}

		genCol += fields[0]
		if genCol < 0 {
			return nil, errors.Newf("sourcemap: negative generated column on line %d", line)
		}
		e := Entry{GenLine: line, GenColumn: genCol, Source: NoSource}
		if n >= 4 {
			source += fields[1]
			origLine += fields[2]
			origCol += fields[3]
			if source < 0 || source >= sources {
				return nil, errors.Newf("sourcemap: source index %d out of range on line %d", source, line)
			}
			if origLine < 0 || origCol < 0 {
				return nil, errors.Newf("sourcemap: negative original position on line %d", line)
			}
			e.Source, e.OrigLine, e.OrigColumn = source, origLine, origCol
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// encodeMappings expects entries in generated-line order.
func encodeMappings(entries []Entry) string {
	var (
		b                                 strings.Builder
		line, genCol                      int
		prevSource, prevLine, prevOrigCol int
	)
	lineStart := true
	for _, e := range entries {
		for line < e.GenLine {
			b.WriteByte(';')
			line++
			genCol = 0
			lineStart = true
		}
		if !lineStart {
			b.WriteByte(',')
		}
		lineStart = false

		writeVLQ(&b, e.GenColumn-genCol)
		genCol = e.GenColumn
		if !e.Mapped() {
			continue
		}
		writeVLQ(&b, e.Source-prevSource)
		writeVLQ(&b, e.OrigLine-prevLine)
		writeVLQ(&b, e.OrigColumn-prevOrigCol)
		prevSource, prevLine, prevOrigCol = e.Source, e.OrigLine, e.OrigColumn
	}
	return b.String()
}
