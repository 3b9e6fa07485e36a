package task

import (
	"fmt"
	"strings"
)

// Priority is one of three levels. The zero value is Medium.
type Priority int

const (
	Medium Priority = iota
	Low
	High
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "LOW"
	case High:
		return "HIGH"
	default:
		return "MEDIUM"
	}
}

// Rank orders priorities for sorting: HIGH > MEDIUM > LOW.
func (p Priority) Rank() int {
	switch p {
	case Low:
		return 0
	case High:
		return 2
	default:
		return 1
	}
}

var byRank = [...]Priority{Low, Medium, High}

// Up and Down step through the levels without wrapping.
func (p Priority) Up() Priority {
	r := p.Rank()
	if r < len(byRank)-1 {
		r++
	}
	return byRank[r]
}

func (p Priority) Down() Priority {
	r := p.Rank()
	if r > 0 {
		r--
	}
	return byRank[r]
}

func ParsePriority(v string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "LOW", "L":
		return Low, nil
	case "", "MEDIUM", "M":
		return Medium, nil
	case "HIGH", "H":
		return High, nil
	}
	return Medium, fmt.Errorf("unknown priority %q", v)
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
