package model

import (
	"fmt"
	"math"
	"strings"
)

// Kind is the right conveyed by the option.
// Keep these values stable; they are used in config files, CSV and JSON.
type Kind string

const (
	Call Kind = "call"
	Put  Kind = "put"
)

type Style string

const (
	European Style = "european"
	American Style = "american"
)

type Payoff string

const (
	Vanilla Payoff = "vanilla"
	// Asian pays on the arithmetic average of the sampled path (S0 included).
	Asian Payoff = "asian"
	// Barrier is an up-and-out knock-out.
	Barrier Payoff = "barrier"
)

// OptionSpec selects what is being priced. Pricers dispatch on these tags.
type OptionSpec struct {
	Kind    Kind    `json:"kind" yaml:"kind"`
	Style   Style   `json:"style" yaml:"style"`
	Payoff  Payoff  `json:"payoff" yaml:"payoff"`
	Barrier float64 `json:"barrier,omitempty" yaml:"barrier"`
}

// EuropeanVanilla is a shorthand for the spec every pricer supports.
func EuropeanVanilla(kind Kind) OptionSpec {
	return OptionSpec{Kind: kind, Style: European, Payoff: Vanilla}
}

// ParseKind accepts "call"/"put" (case-insensitive, also "c"/"p").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", fmt.Errorf("unknown option kind %q", s)
	}
}

func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "european":
		return European, nil
	case "american":
		return American, nil
	default:
		return "", fmt.Errorf("unknown exercise style %q", s)
	}
}

func ParsePayoff(s string) (Payoff, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vanilla":
		return Vanilla, nil
	case "asian", "asian-average":
		return Asian, nil
	case "barrier", "up-and-out", "up-and-out-barrier":
		return Barrier, nil
	default:
		return "", fmt.Errorf("unknown payoff %q", s)
	}
}

// Normalize fills empty style/payoff with their defaults.
func (s OptionSpec) Normalize() OptionSpec {
	if s.Style == "" {
		s.Style = European
	}
	if s.Payoff == "" {
		s.Payoff = Vanilla
	}
	return s
}

func (s OptionSpec) Validate() error {
	switch s.Kind {
	case Call, Put:
	default:
		return fmt.Errorf("%w: kind %q must be call or put", ErrInvalidParameter, s.Kind)
	}
	switch s.Style {
	case European, American:
	default:
		return fmt.Errorf("%w: style %q must be european or american", ErrInvalidParameter, s.Style)
	}
	switch s.Payoff {
	case Vanilla, Asian:
		if s.Barrier != 0 {
			return invalid("barrier", s.Barrier, "only allowed for barrier payoffs")
		}
	case Barrier:
		if !(s.Barrier > 0) || math.IsInf(s.Barrier, 0) {
			return invalid("barrier", s.Barrier, "barrier payoff requires a positive barrier level")
		}
	default:
		return fmt.Errorf("%w: payoff %q must be vanilla, asian or barrier", ErrInvalidParameter, s.Payoff)
	}
	return nil
}

// IsEuropeanVanilla reports whether the closed form applies.
func (s OptionSpec) IsEuropeanVanilla() bool {
	return s.Style == European && s.Payoff == Vanilla
}

// PathDependent reports whether pricing needs the full path rather than S_T.
func (s OptionSpec) PathDependent() bool {
	return s.Payoff == Asian || s.Payoff == Barrier
}

// Intrinsic is the vanilla exercise value at underlying price st.
func (s OptionSpec) Intrinsic(st, strike float64) float64 {
	return Intrinsic(s.Kind, st, strike)
}

func Intrinsic(kind Kind, st, strike float64) float64 {
	if kind == Put {
		return math.Max(strike-st, 0)
	}
	return math.Max(st-strike, 0)
}

func (s OptionSpec) String() string {
	out := fmt.Sprintf("%s %s", s.Style, s.Kind)
	if s.Payoff != Vanilla && s.Payoff != "" {
		out += " " + string(s.Payoff)
	}
	if s.Payoff == Barrier {
		out += fmt.Sprintf("@%g", s.Barrier)
	}
	return out
}
