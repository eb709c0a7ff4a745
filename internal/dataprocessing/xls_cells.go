package dataprocessing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// BIFF8 record identifiers read by the cell scanner
const (
	recEOF        = 0x000A
	recFormula    = 0x0006
	recDateMode   = 0x0022
	recBoundSheet = 0x0085
	recMulRK      = 0x00BD
	recMulBlank   = 0x00BE
	recXF         = 0x00E0
	recLabelSST   = 0x00FD
	recBlank      = 0x0201
	recNumber     = 0x0203
	recLabel      = 0x0204
	recString     = 0x0207
	recRow        = 0x0208
	recRK         = 0x027E
	recFormat     = 0x041E
	recBOF        = 0x0809
)

// 1904-based serials are this many days behind 1900-based ones
const date1904Offset = 1462

type cellRef struct {
	row, col int
}

// biffSheet is what the record scan found in the first worksheet. Values
// holds the stored value of every numeric cell and every evaluated
// formula, keyed by position; widths holds the column count of every row
// that has a ROW or cell record.
type biffSheet struct {
	values map[cellRef]string
	widths map[int]int
	maxRow int
}

func (s *biffSheet) touch(row, lastCol int) {
	s.widths[row] = max(s.widths[row], lastCol+1)
	if row > s.maxRow {
		s.maxRow = row
	}
}

type biffRecord struct {
	id   uint16
	data []byte
}

type biffStream struct {
	buf []byte
	pos int
}

func (b *biffStream) next() (biffRecord, bool) {
	if b.pos+4 > len(b.buf) {
		return biffRecord{}, false
	}
	id := binary.LittleEndian.Uint16(b.buf[b.pos:])
	size := int(binary.LittleEndian.Uint16(b.buf[b.pos+2:]))
	start := b.pos + 4
	if start+size > len(b.buf) {
		return biffRecord{}, false
	}
	b.pos = start + size
	return biffRecord{id: id, data: b.buf[start : start+size]}, true
}

// workbookStream returns the BIFF stream stored in an OLE2 container
func workbookStream(data []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name == "Workbook" || entry.Name == "Book" {
			return io.ReadAll(entry)
		}
	}
	return nil, errors.New("no workbook stream")
}

// scanBIFFSheet reads the raw cell values of the first worksheet. Display
// strings from the xls reader lose information for date and custom
// formatted cells, so numbers come from here instead.
func scanBIFFSheet(data []byte) (*biffSheet, error) {
	stream, err := workbookStream(data)
	if err != nil {
		return nil, err
	}

	var (
		date1904  bool
		formats   = make(map[uint16]string)
		xfFormats []uint16
		sheetPos  = -1
	)
	globals := &biffStream{buf: stream}
	for rec, ok := globals.next(); ok && rec.id != recEOF; rec, ok = globals.next() {
		switch rec.id {
		case recDateMode:
			date1904 = len(rec.data) >= 2 && binary.LittleEndian.Uint16(rec.data) == 1
		case recFormat:
			if len(rec.data) >= 2 {
				formats[binary.LittleEndian.Uint16(rec.data)] = biffString(rec.data[2:])
			}
		case recXF:
			if len(rec.data) >= 4 {
				xfFormats = append(xfFormats, binary.LittleEndian.Uint16(rec.data[2:]))
			}
		case recBoundSheet:
			if sheetPos < 0 && len(rec.data) >= 4 {
				sheetPos = int(binary.LittleEndian.Uint32(rec.data))
			}
		}
	}
	if sheetPos < 0 || sheetPos >= len(stream) {
		return nil, errors.New("workbook has no sheets")
	}

	isDate := func(xf uint16) bool {
		if int(xf) >= len(xfFormats) {
			return false
		}
		return isDateFormat(xfFormats[xf], formats)
	}
	sheet := &biffSheet{values: make(map[cellRef]string), widths: make(map[int]int)}
	number := func(row, col int, xf uint16, v float64) {
		if date1904 && isDate(xf) {
			v += date1904Offset
		}
		sheet.values[cellRef{row, col}] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	body := &biffStream{buf: stream, pos: sheetPos}
	if rec, ok := body.next(); !ok || rec.id != recBOF {
		return nil, errors.New("first sheet does not start with a BOF record")
	}
	var pending *cellRef
	for rec, ok := body.next(); ok && rec.id != recEOF; rec, ok = body.next() {
		d := rec.data
		switch rec.id {
		case recRow:
			if len(d) >= 6 {
				row, last := int(u16(d, 0)), int(u16(d, 4))
				sheet.touch(row, last-1)
			}
		case recNumber:
			if len(d) >= 14 {
				row, col := int(u16(d, 0)), int(u16(d, 2))
				number(row, col, u16(d, 4), math.Float64frombits(binary.LittleEndian.Uint64(d[6:])))
				sheet.touch(row, col)
			}
		case recRK:
			if len(d) >= 10 {
				row, col := int(u16(d, 0)), int(u16(d, 2))
				number(row, col, u16(d, 4), decodeRK(binary.LittleEndian.Uint32(d[6:])))
				sheet.touch(row, col)
			}
		case recMulRK:
			if len(d) >= 6 {
				row, first := int(u16(d, 0)), int(u16(d, 2))
				n := (len(d) - 6) / 6
				for i := 0; i < n; i++ {
					off := 4 + i*6
					number(row, first+i, u16(d, off), decodeRK(binary.LittleEndian.Uint32(d[off+2:])))
				}
				sheet.touch(row, first+n-1)
			}
		case recFormula:
			if len(d) >= 14 {
				row, col := int(u16(d, 0)), int(u16(d, 2))
				sheet.touch(row, col)
				pending = nil
				ref := cellRef{row, col}
				switch {
				case u16(d, 12) != 0xFFFF:
					number(row, col, u16(d, 4), math.Float64frombits(binary.LittleEndian.Uint64(d[6:])))
				case d[6] == 0: // text result follows in a STRING record
					pending = &ref
				case d[6] == 1:
					sheet.values[ref] = strings.ToUpper(strconv.FormatBool(d[8] != 0))
				default:
					sheet.values[ref] = ""
				}
			}
		case recString:
			if pending != nil {
				sheet.values[*pending] = biffString(d)
				pending = nil
			}
		case recLabel, recLabelSST, recBlank:
			if len(d) >= 4 {
				sheet.touch(int(u16(d, 0)), int(u16(d, 2)))
			}
		case recMulBlank:
			if len(d) >= 6 {
				sheet.touch(int(u16(d, 0)), int(u16(d, len(d)-2)))
			}
		}
	}
	return sheet, nil
}

func u16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off:])
}

// decodeRK unpacks the 30-bit compressed number of RK and MULRK cells
func decodeRK(rk uint32) float64 {
	var v float64
	if rk&0x02 != 0 {
		v = float64(int32(rk) >> 2)
	} else {
		v = math.Float64frombits(uint64(rk&^0x03) << 32)
	}
	if rk&0x01 != 0 {
		v /= 100
	}
	return v
}

// biffString decodes an XLUnicodeString: a character count, an option
// byte and either Latin-1 or UTF-16LE characters.
func biffString(b []byte) string {
	if len(b) < 3 {
		return ""
	}
	n := int(binary.LittleEndian.Uint16(b))
	flags := b[2]
	b = b[3:]
	if flags&0x08 != 0 && len(b) >= 2 {
		b = b[2:]
	}
	if flags&0x04 != 0 && len(b) >= 4 {
		b = b[4:]
	}
	if flags&0x01 == 0 {
		if n > len(b) {
			n = len(b)
		}
		runes := make([]rune, n)
		for i := 0; i < n; i++ {
			runes[i] = rune(b[i])
		}
		return string(runes)
	}
	if 2*n > len(b) {
		n = len(b) / 2
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}

// isDateFormat reports whether a number format renders dates or times.
// Built-in identifiers follow the BIFF8 table; custom formats are checked
// for date tokens outside quoted text and brackets.
func isDateFormat(id uint16, custom map[uint16]string) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	case id < 164:
		return false
	}
	code, ok := custom[id]
	if !ok {
		return false
	}
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case strings.ContainsRune("ydmhs", r):
			return true
		}
	}
	return false
}

// overlayXLS merges raw values over the reader's display strings
func overlayXLS(sheet *biffSheet, col func(row, col int) string, lastCol func(row int) int) [][]string {
	rows := make([][]string, sheet.maxRow+1)
	for i := range rows {
		width, ok := sheet.widths[i]
		if !ok {
			continue
		}
		if n := lastCol(i); n > width {
			width = n
		}
		cells := make([]string, width)
		for j := range cells {
			if v, ok := sheet.values[cellRef{i, j}]; ok {
				cells[j] = v
				continue
			}
			cells[j] = col(i, j)
		}
		rows[i] = cells
	}
	return rows
}
