package input

import (
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
)

func TestButtonsMarshalRoundTrip(t *testing.T) {
	tests := []struct {
		text    string
		buttons Buttons
		canon   string // marshaled text, if different
		wantErr bool
	}{
		{text: "", buttons: 0},
		{text: "A", buttons: 1 << PadA},
		{text: "A+Start", buttons: 1<<PadA | 1<<PadStart},
		{text: "B+Select+Up+Right", buttons: 1<<PadB | 1<<PadSelect | 1<<PadUp | 1<<PadRight},
		{text: "start + a", buttons: 1<<PadA | 1<<PadStart, canon: "A+Start"},
		{text: "Left+Left", buttons: 1 << PadLeft, canon: "Left"},

		// unmarshal errors
		{text: "A+Turbo", wantErr: true},
		{text: "A++B", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var b Buttons
			if err := b.UnmarshalText([]byte(tt.text)); err != nil {
				if !tt.wantErr {
					t.Fatalf("UnmarshalText(%q) error: %v", tt.text, err)
				}
				t.Log("UnmarshalText error:", err)
				return
			}
			if tt.wantErr {
				t.Fatalf("UnmarshalText(%q) should fail", tt.text)
			}

			if b != tt.buttons {
				t.Fatalf("UnmarshalText(%q) = %08b, want %08b", tt.text, b, tt.buttons)
			}

			text, err := b.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			want := tt.text
			if tt.canon != "" {
				want = tt.canon
			}
			if diff := cmp.Diff(want, string(text)); diff != "" {
				t.Fatalf("MarshalText mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProviderScript(t *testing.T) {
	const script = `
[[paddles]]
plugged = true
script = [
	{ frame = 10, buttons = "Start" },
	{ frame = 12, buttons = "" },
	{ frame = 30, buttons = "A+Right" },
]

[[paddles]]
plugged = false
script = [{ frame = 0, buttons = "B" }]
`
	var cfg Config
	if _, err := toml.Decode(script, &cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(cfg)

	var got []uint8
	for _, frame := range []int64{0, 9, 10, 11, 12, 29, 30, 1000} {
		p.SetFrame(frame)
		p1, p2 := p.LoadState()
		if p2 != 0 {
			t.Errorf("frame %d: unplugged paddle state = %08b", frame, p2)
		}
		got = append(got, p1)
	}

	const (
		start   = 1 << PadStart
		aright  = 1<<PadA | 1<<PadRight
		nothing = 0
	)
	want := []uint8{nothing, nothing, start, start, nothing, nothing, aright, aright}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("paddle 1 states mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Paddles: make([]PaddleConfig, 2)}
	cfg.Paddles[1].Script = []Event{{Frame: 5}, {Frame: 5}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("duplicated frame should be rejected")
	}

	cfg.Paddles[1].Script = []Event{{Frame: -1}}
	if err := cfg.Validate(); err == nil {
		t.Errorf("negative frame should be rejected")
	}

	cfg.Paddles[1].Script = []Event{{Frame: 0}, {Frame: 5}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid script rejected: %v", err)
	}

	cfg.Paddles = append(cfg.Paddles, PaddleConfig{})
	if err := cfg.Validate(); err == nil {
		t.Errorf("3 paddles should be rejected")
	}

	// No paddle at all reads as nothing pressed.
	if p1, p2 := NewProvider(Config{}).LoadState(); p1 != 0 || p2 != 0 {
		t.Errorf("LoadState() = %08b, %08b", p1, p2)
	}
}
