package hwio

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	typeReg8   = reflect.TypeFor[Reg8]()
	typeMem    = reflect.TypeFor[Mem]()
	typeDevice = reflect.TypeFor[Device]()
)

type bankReg struct {
	regPtr any
	offset uint16
}

// regTag holds the parsed content of a "hwio" struct tag.
type regTag struct {
	opts map[string]string
}

func parseTag(tag string) (regTag, error) {
	rt := regTag{opts: make(map[string]string)}
	for _, opt := range strings.Split(tag, ",") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key, val, _ := strings.Cut(opt, "=")
		switch key {
		case "offset", "bank", "size", "vsize", "reset", "rwmask",
			"readonly", "writeonly", "rcb", "wcb", "pcb":
		default:
			return rt, fmt.Errorf("unknown hwio option %q", key)
		}
		rt.opts[key] = val
	}
	return rt, nil
}

func (rt regTag) has(key string) bool {
	_, ok := rt.opts[key]
	return ok
}

func (rt regTag) uint(key string, def uint64, bits int) (uint64, error) {
	s, ok := rt.opts[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, s, err)
	}
	return v, nil
}

// cbName returns the callback method name for the given callback option, if
// present: either the explicit name, or prefix+uppercased field name.
func (rt regTag) cbName(key, prefix, field string) (string, bool) {
	name, ok := rt.opts[key]
	if !ok {
		return "", false
	}
	if name == "" {
		name = prefix + strings.ToUpper(field)
	}
	return name, true
}

func (rt regTag) rwflags() (RWFlags, error) {
	switch {
	case rt.has("readonly") && rt.has("writeonly"):
		return 0, errors.New("readonly and writeonly are mutually exclusive")
	case rt.has("readonly"):
		return ReadOnlyFlag, nil
	case rt.has("writeonly"):
		return WriteOnlyFlag, nil
	}
	return 0, nil
}

// taggedFields iterates over the fields of the struct pointed by data that
// have a "hwio" tag.
func taggedFields(data any, fn func(f reflect.StructField, v reflect.Value, tag regTag) error) error {
	val := reflect.ValueOf(data)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("hwio: expected pointer to struct, got %T", data)
	}

	sval := val.Elem()
	styp := sval.Type()
	for i := range styp.NumField() {
		f := styp.Field(i)
		tagstr, ok := f.Tag.Lookup("hwio")
		if !ok || !f.IsExported() {
			continue
		}
		tag, err := parseTag(tagstr)
		if err != nil {
			return fmt.Errorf("hwio: %s.%s: %w", styp.Name(), f.Name, err)
		}
		if err := fn(f, sval.Field(i), tag); err != nil {
			return fmt.Errorf("hwio: %s.%s: %w", styp.Name(), f.Name, err)
		}
	}
	return nil
}

func bankGetRegs(bank any, bankNum int) ([]bankReg, error) {
	var regs []bankReg
	err := taggedFields(bank, func(f reflect.StructField, v reflect.Value, tag regTag) error {
		if !tag.has("offset") {
			return nil
		}
		num, err := tag.uint("bank", 0, 8)
		if err != nil {
			return err
		}
		if int(num) != bankNum {
			return nil
		}
		off, err := tag.uint("offset", 0, 16)
		if err != nil {
			return err
		}
		switch f.Type {
		case typeReg8, typeMem, typeDevice:
		default:
			return fmt.Errorf("unsupported type %s", f.Type)
		}
		regs = append(regs, bankReg{regPtr: v.Addr().Interface(), offset: uint16(off)})
		return nil
	})
	return regs, err
}

// MustInitRegs is like InitRegs but panics on error.
func MustInitRegs(data any) {
	if err := InitRegs(data); err != nil {
		panic(err)
	}
}

// InitRegs initializes the Reg8, Mem and Device fields of the struct pointed
// by data, according to their "hwio" struct tags:
//
//	reset=0x12      Reg8 initial value.
//	rwmask=0xF0     Reg8 writable bits (default 0xFF).
//	size=0x800      Mem buffer size, or Device mapped size.
//	vsize=0x2000    Mem mapped size (mirroring), defaults to size.
//	readonly        Writes are ignored (and logged).
//	writeonly       Reads return 0 (and are logged).
//	rcb[=Name]      Read callback, default method name is Read<FIELD>.
//	wcb[=Name]      Write callback, default method name is Write<FIELD>.
//	pcb[=Name]      Peek callback, default method name is Peek<FIELD>.
func InitRegs(data any) error {
	obj := reflect.ValueOf(data)
	return taggedFields(data, func(f reflect.StructField, v reflect.Value, tag regTag) error {
		flags, err := tag.rwflags()
		if err != nil {
			return err
		}

		switch f.Type {
		case typeReg8:
			return initReg8(v.Addr().Interface().(*Reg8), f.Name, obj, tag, flags)
		case typeMem:
			return initMem(v.Addr().Interface().(*Mem), f.Name, tag, flags)
		case typeDevice:
			return initDevice(v.Addr().Interface().(*Device), f.Name, obj, tag, flags)
		}
		return fmt.Errorf("unsupported type %s", f.Type)
	})
}

func method(obj reflect.Value, name string) (any, error) {
	m := obj.MethodByName(name)
	if !m.IsValid() {
		return nil, fmt.Errorf("missing method %s on %s", name, obj.Type())
	}
	return m.Interface(), nil
}

func initReg8(reg *Reg8, name string, obj reflect.Value, tag regTag, flags RWFlags) error {
	reset, err := tag.uint("reset", 0, 8)
	if err != nil {
		return err
	}
	rwmask, err := tag.uint("rwmask", 0xFF, 8)
	if err != nil {
		return err
	}

	reg.Name = name
	reg.Value = uint8(reset)
	reg.RoMask = ^uint8(rwmask)
	reg.Flags = flags

	if mname, ok := tag.cbName("rcb", "Read", name); ok {
		m, err := method(obj, mname)
		if err != nil {
			return err
		}
		fn, ok := m.(func(uint8) uint8)
		if !ok {
			return fmt.Errorf("invalid read callback signature %T", m)
		}
		reg.ReadCb = fn
	}
	if mname, ok := tag.cbName("wcb", "Write", name); ok {
		m, err := method(obj, mname)
		if err != nil {
			return err
		}
		fn, ok := m.(func(uint8, uint8))
		if !ok {
			return fmt.Errorf("invalid write callback signature %T", m)
		}
		reg.WriteCb = fn
	}
	if mname, ok := tag.cbName("pcb", "Peek", name); ok {
		m, err := method(obj, mname)
		if err != nil {
			return err
		}
		fn, ok := m.(func(uint8) uint8)
		if !ok {
			return fmt.Errorf("invalid peek callback signature %T", m)
		}
		reg.PeekCb = fn
	}
	return nil
}

func initMem(mem *Mem, name string, tag regTag, flags RWFlags) error {
	size, err := tag.uint("size", 0, 32)
	if err != nil {
		return err
	}
	vsize, err := tag.uint("vsize", size, 32)
	if err != nil {
		return err
	}
	if size == 0 {
		return errors.New("mem requires a size")
	}
	if size&(size-1) != 0 {
		return fmt.Errorf("mem size %#x is not a power of 2", size)
	}
	if flags == WriteOnlyFlag {
		return errors.New("mem cannot be writeonly")
	}

	mem.Name = name
	if len(mem.Data) != int(size) {
		mem.Data = make([]byte, size)
	}
	mem.VSize = int(vsize)
	mem.Flags = flags
	return nil
}

func initDevice(dev *Device, name string, obj reflect.Value, tag regTag, flags RWFlags) error {
	size, err := tag.uint("size", 0, 32)
	if err != nil {
		return err
	}
	if size == 0 {
		return errors.New("device requires a size")
	}

	dev.Name = name
	dev.Size = int(size)
	dev.Flags = flags

	type (
		readFn  = func(uint16) uint8
		writeFn = func(uint16, uint8)
	)

	if mname, ok := tag.cbName("rcb", "Read", name); ok {
		m, err := method(obj, mname)
		if err != nil {
			return err
		}
		fn, ok := m.(readFn)
		if !ok {
			return fmt.Errorf("invalid read callback signature %T", m)
		}
		dev.ReadCb = fn
	}
	if mname, ok := tag.cbName("wcb", "Write", name); ok {
		m, err := method(obj, mname)
		if err != nil {
			return err
		}
		fn, ok := m.(writeFn)
		if !ok {
			return fmt.Errorf("invalid write callback signature %T", m)
		}
		dev.WriteCb = fn
	}
	if mname, ok := tag.cbName("pcb", "Peek", name); ok {
		m, err := method(obj, mname)
		if err != nil {
			return err
		}
		fn, ok := m.(readFn)
		if !ok {
			return fmt.Errorf("invalid peek callback signature %T", m)
		}
		dev.PeekCb = fn
	}
	return nil
}
