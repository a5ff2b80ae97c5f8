package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

const maxZFields = 16

// EntryZ is a log entry under construction. A nil *EntryZ is a disabled entry:
// all its methods are no-ops, so that the cost of a disabled log line is a
// single nil check per chained call.
type EntryZ struct {
	lvl Level
	mod Module
	msg string

	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func NewEntryZ() *EntryZ {
	z := entryPool.Get().(*EntryZ)
	z.zfidx = 0
	return z
}

func (z *EntryZ) add(f ZField) *EntryZ {
	if z.zfidx < maxZFields {
		z.zfbuf[z.zfidx] = f
		z.zfidx++
	}
	return z
}

func (z *EntryZ) String(key, val string) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindString, Key: key, str: val})
}

func (z *EntryZ) Bool(key string, val bool) *EntryZ {
	if z == nil {
		return nil
	}
	f := ZField{kind: kindBool, Key: key}
	if val {
		f.num = 1
	}
	return z.add(f)
}

func (z *EntryZ) Int(key string, val int) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindInt, Key: key, num: uint64(val)})
}

func (z *EntryZ) Int64(key string, val int64) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindInt, Key: key, num: uint64(val)})
}

func (z *EntryZ) Uint8(key string, val uint8) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindUint, Key: key, num: uint64(val)})
}

func (z *EntryZ) Uint16(key string, val uint16) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindUint, Key: key, num: uint64(val)})
}

func (z *EntryZ) Uint32(key string, val uint32) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindUint, Key: key, num: uint64(val)})
}

func (z *EntryZ) Hex8(key string, val uint8) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindHex, width: 2, Key: key, num: uint64(val)})
}

func (z *EntryZ) Hex16(key string, val uint16) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindHex, width: 4, Key: key, num: uint64(val)})
}

func (z *EntryZ) Hex32(key string, val uint32) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindHex, width: 8, Key: key, num: uint64(val)})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindError, Key: key, err: err})
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindDuration, Key: key, num: uint64(d)})
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindStringer, Key: key, obj: s})
}

func (z *EntryZ) Blob(key string, buf []byte) *EntryZ {
	if z == nil {
		return nil
	}
	return z.add(ZField{kind: kindBlob, Key: key, blob: buf})
}

// End emits the entry and releases it. The entry must not be used after.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	for _, c := range contexts {
		c.AddLogContext(z)
	}

	fields := make(logrus.Fields, z.zfidx+1)
	fields["_mod"] = modNames[z.mod]
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}

	entry := logrus.StandardLogger().WithFields(fields)
	switch z.lvl {
	case DebugLevel:
		entry.Debug(z.msg)
	case InfoLevel:
		entry.Info(z.msg)
	case WarnLevel:
		entry.Warn(z.msg)
	case ErrorLevel:
		entry.Error(z.msg)
	case FatalLevel:
		entry.Fatal(z.msg)
	case PanicLevel:
		entry.Panic(z.msg)
	}

	clear(z.zfbuf[:z.zfidx])
	z.zfidx = 0
	entryPool.Put(z)
}

// A Context adds fields to every log entry, for example the current CPU
// program counter.
type Context interface {
	AddLogContext(z *EntryZ)
}

var contexts []Context

func AddContext(c Context) {
	contexts = append(contexts, c)
}

func RemoveContext(c Context) {
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}
