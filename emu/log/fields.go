package log

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

type fieldKind uint8

const (
	kindBool fieldKind = iota + 1
	kindString
	kindInt
	kindUint
	kindHex // num formatted in hexadecimal, on width digits
	kindError
	kindDuration
	kindStringer
	kindBlob
)

// ZField is a key-value pair attached to an EntryZ. The value is only
// formatted when the entry is emitted.
type ZField struct {
	Key string

	kind  fieldKind
	width int
	str   string
	num   uint64
	err   error
	obj   fmt.Stringer
	blob  []byte
}

// Value returns the formatted field value.
func (f *ZField) Value() string {
	switch f.kind {
	case kindBool:
		return strconv.FormatBool(f.num != 0)
	case kindString:
		return f.str
	case kindInt:
		return strconv.FormatInt(int64(f.num), 10)
	case kindUint:
		return strconv.FormatUint(f.num, 10)
	case kindHex:
		return appendHex(make([]byte, 0, f.width), f.num, f.width)
	case kindError:
		if f.err == nil {
			return "<nil>"
		}
		return f.err.Error()
	case kindDuration:
		return time.Duration(f.num).String()
	case kindStringer:
		if f.obj == nil {
			return "<nil>"
		}
		return f.obj.String()
	case kindBlob:
		return hex.EncodeToString(f.blob)
	}
	return ""
}

func appendHex(dst []byte, v uint64, width int) string {
	const digits = "0123456789abcdef"
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, digits[(v>>(4*i))&0xF])
	}
	return string(dst)
}
