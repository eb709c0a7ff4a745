package dataprocessing

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

// Cell kinds for legacyWorkbook. Plain strings become LABEL cells and plain
// float64 values NUMBER cells with the general format.
type (
	// xlsDate is stored as an RK serial with the built-in m/d/yyyy format
	xlsDate time.Time
	// xlsRK is stored as an RK number; neighbours are packed into MULRK
	xlsRK float64
	// xlsFixed is an RK cell with the custom "0.000" format
	xlsFixed float64
)

const (
	xfGeneral = iota
	xfDate
	xfFixed
)

type biffBuilder struct {
	bytes.Buffer
}

func (b *biffBuilder) record(id uint16, fields ...interface{}) {
	var body bytes.Buffer
	for _, f := range fields {
		if err := binary.Write(&body, binary.LittleEndian, f); err != nil {
			panic(err)
		}
	}
	binary.Write(&b.Buffer, binary.LittleEndian, id)
	binary.Write(&b.Buffer, binary.LittleEndian, uint16(body.Len()))
	b.Write(body.Bytes())
}

func latin1(s string) []byte {
	out := make([]byte, 0, len(s)+3)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(s)))
	out = append(out, 0)
	return append(out, s...)
}

func excelSerial(t time.Time, date1904 bool) float64 {
	days := t.Sub(time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)).Hours() / 24
	if date1904 {
		days -= date1904Offset
	}
	return days
}

// encodeRK packs v into the RK form, failing the test when it does not fit
func encodeRK(t *testing.T, v float64) uint32 {
	t.Helper()
	for _, scale := range []float64{1, 100} {
		n := v * scale
		if n == math.Trunc(n) && math.Abs(n) < 1<<29 {
			rk := uint32(int32(n))<<2 | 0x02
			if scale == 100 {
				rk |= 0x01
			}
			return rk
		}
	}
	bits := math.Float64bits(v)
	require.Zero(t, bits&(1<<34-1), "%v does not fit an RK cell", v)
	return uint32(bits >> 32)
}

// legacyWorkbook renders rows into an in-memory BIFF8 .xls with a single
// sheet, header first.
func legacyWorkbook(t *testing.T, date1904 bool, rows [][]interface{}) []byte {
	t.Helper()

	var g biffBuilder
	g.record(0x0809, uint16(0x0600), uint16(0x0005), uint16(0x0DBB), uint16(0x07CC), uint32(0), uint32(0x06))
	var mode uint16
	if date1904 {
		mode = 1
	}
	g.record(0x0022, mode)
	g.record(0x041E, uint16(164), latin1("0.000"))
	for _, format := range []uint16{0, 14, 164} {
		g.record(0x00E0, uint16(0), format, make([]byte, 16))
	}
	sheetName := "Readings"
	posField := g.Len() + 4
	g.record(0x0085, uint32(0), uint8(0), uint8(0), uint8(len(sheetName)), uint8(0), []byte(sheetName))
	g.record(0x000A)

	var s biffBuilder
	s.record(0x0809, uint16(0x0600), uint16(0x0010), uint16(0x0DBB), uint16(0x07CC), uint32(0), uint32(0x06))
	for r, row := range rows {
		s.record(0x0208, uint16(r), uint16(0), uint16(len(row)), uint16(0x00FF), uint16(0), uint16(0), uint32(0x100))
	}
	for r, row := range rows {
		for c := 0; c < len(row); c++ {
			switch v := row[c].(type) {
			case nil:
			case string:
				s.record(0x0204, uint16(r), uint16(c), uint16(xfGeneral), latin1(v))
			case float64:
				s.record(0x0203, uint16(r), uint16(c), uint16(xfGeneral), v)
			case xlsFixed:
				s.record(0x027E, uint16(r), uint16(c), uint16(xfFixed), encodeRK(t, float64(v)))
			case xlsDate:
				s.record(0x027E, uint16(r), uint16(c), uint16(xfDate), encodeRK(t, excelSerial(time.Time(v), date1904)))
			case xlsRK:
				end := c
				for end+1 < len(row) {
					if _, ok := row[end+1].(xlsRK); !ok {
						break
					}
					end++
				}
				if end == c {
					s.record(0x027E, uint16(r), uint16(c), uint16(xfGeneral), encodeRK(t, float64(v)))
					continue
				}
				fields := []interface{}{uint16(r), uint16(c)}
				for i := c; i <= end; i++ {
					fields = append(fields, uint16(xfGeneral), encodeRK(t, float64(row[i].(xlsRK))))
				}
				fields = append(fields, uint16(end))
				s.record(0x00BD, fields...)
				c = end
			default:
				t.Fatalf("unsupported xls cell %T", v)
			}
		}
	}
	s.record(0x000A)

	stream := append(g.Bytes(), s.Bytes()...)
	binary.LittleEndian.PutUint32(stream[posField:], uint32(g.Len()))
	return compoundFile(t, "Workbook", stream)
}

// compoundFile wraps stream in a version 3 OLE2 container: header, one FAT
// sector, one directory sector and the stream sectors.
func compoundFile(t *testing.T, name string, stream []byte) []byte {
	t.Helper()
	const (
		sectorSize = 512
		endOfChain = 0xFFFFFFFE
		freeSect   = 0xFFFFFFFF
		fatSect    = 0xFFFFFFFD
		noStream   = 0xFFFFFFFF
	)

	size := max(4096, (len(stream)+sectorSize-1)/sectorSize*sectorSize)
	padded := make([]byte, size)
	copy(padded, stream)
	nsec := size / sectorSize
	require.Less(t, nsec+2, sectorSize/4, "stream too large for one FAT sector")

	le := binary.LittleEndian
	header := make([]byte, sectorSize)
	le.PutUint64(header[0:], 0xE11AB1A1E011CFD0)
	le.PutUint16(header[24:], 0x003E)
	le.PutUint16(header[26:], 0x0003)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1)
	le.PutUint32(header[48:], 1)
	le.PutUint32(header[56:], 4096)
	le.PutUint32(header[60:], endOfChain)
	le.PutUint32(header[68:], endOfChain)
	le.PutUint32(header[76:], 0)
	for i := 80; i < sectorSize; i += 4 {
		le.PutUint32(header[i:], freeSect)
	}

	fat := make([]byte, sectorSize)
	for i := 0; i < sectorSize/4; i++ {
		le.PutUint32(fat[i*4:], freeSect)
	}
	le.PutUint32(fat[0:], fatSect)
	le.PutUint32(fat[4:], endOfChain)
	for i := 0; i < nsec; i++ {
		next := uint32(i + 3)
		if i == nsec-1 {
			next = endOfChain
		}
		le.PutUint32(fat[(i+2)*4:], next)
	}

	dir := make([]byte, sectorSize)
	entry := func(idx int, name string, kind byte, child, start, size uint32) {
		e := dir[idx*128 : (idx+1)*128]
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			le.PutUint16(e[i*2:], u)
		}
		le.PutUint16(e[64:], uint16((len(units)+1)*2))
		e[66] = kind
		e[67] = 1
		le.PutUint32(e[68:], noStream)
		le.PutUint32(e[72:], noStream)
		le.PutUint32(e[76:], child)
		le.PutUint32(e[116:], start)
		le.PutUint32(e[120:], size)
	}
	entry(0, "Root Entry", 5, 1, endOfChain, 0)
	entry(1, name, 2, noStream, 2, uint32(size))

	out := append(header, fat...)
	out = append(out, dir...)
	return append(out, padded...)
}
