package input

import (
	"fmt"
	"strings"
)

// A PaddleButton identifies a button of a standard NES controller/paddle.
type PaddleButton byte

const (
	PadA PaddleButton = iota
	PadB
	PadSelect
	PadStart
	PadUp
	PadDown
	PadLeft
	PadRight

	PadButtonCount
)

var buttonNames = [PadButtonCount]string{
	"A", "B",
	"Select", "Start",
	"Up", "Down", "Left", "Right",
}

func (pd PaddleButton) String() string {
	if pd >= PadButtonCount {
		return fmt.Sprintf("PaddleButton(%d)", pd)
	}
	return buttonNames[pd]
}

// Buttons is a set of pressed buttons. Bit n is set when PaddleButton(n) is
// pressed, which is the order in which the controller shift register reports
// them.
type Buttons uint8

func (b Buttons) Has(btn PaddleButton) bool {
	return b&(1<<btn) != 0
}

// MarshalText encodes the set as button names joined by '+', for example
// "A+Start". The empty set is the empty string.
func (b Buttons) MarshalText() ([]byte, error) {
	var names []string
	for btn := range PadButtonCount {
		if b.Has(btn) {
			names = append(names, btn.String())
		}
	}
	return []byte(strings.Join(names, "+")), nil
}

func (b *Buttons) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*b = 0
		return nil
	}

	var set Buttons
	for name := range strings.SplitSeq(s, "+") {
		name = strings.TrimSpace(name)
		btn := PadButtonCount
		for i, bn := range buttonNames {
			if strings.EqualFold(bn, name) {
				btn = PaddleButton(i)
				break
			}
		}
		if btn == PadButtonCount {
			return fmt.Errorf("unrecognized button %q in %q", name, s)
		}
		set |= 1 << btn
	}
	*b = set
	return nil
}

func (b Buttons) String() string {
	text, _ := b.MarshalText()
	if len(text) == 0 {
		return "none"
	}
	return string(text)
}
