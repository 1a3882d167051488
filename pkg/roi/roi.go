package roi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedToken   = errors.New("malformed region token")
	ErrDegenerateRegion = errors.New("degenerate region")
)

const (
	KeyTop    = "top"
	KeyLeft   = "left"
	KeyBottom = "bottom"
	KeyRight  = "right"
)

// Region is a rectangular offset into whole-slide pixel space.
type Region struct {
	Top    int `json:"top"`
	Left   int `json:"left"`
	Bottom int `json:"bottom"`
	Right  int `json:"right"`

	present uint8
}

func (r Region) Has(key string) bool {
	bit, ok := keyBits[key]
	return ok && r.present&bit != 0
}

func (r Region) Complete() bool {
	return r.present == bitTop|bitLeft|bitBottom|bitRight
}

func (r Region) Width() int {
	return r.Right - r.Left
}

func (r Region) Height() int {
	return r.Bottom - r.Top
}

// Validate reports ErrDegenerateRegion when the region is incomplete or inverted.
func (r Region) Validate() error {
	if !r.Complete() {
		return fmt.Errorf("%w: missing bounds", ErrDegenerateRegion)
	}

	if r.Right < r.Left || r.Bottom < r.Top {
		return fmt.Errorf("%w: left=%d top=%d right=%d bottom=%d", ErrDegenerateRegion, r.Left, r.Top, r.Right, r.Bottom)
	}

	return nil
}

func (r *Region) set(key string, val int) {
	switch key {
	case KeyTop:
		r.Top = val
	case KeyLeft:
		r.Left = val
	case KeyBottom:
		r.Bottom = val
	case KeyRight:
		r.Right = val
	}

	r.present |= keyBits[key]
}

const (
	bitTop uint8 = 1 << iota
	bitLeft
	bitBottom
	bitRight
)

var keyBits = map[string]uint8{
	KeyTop:    bitTop,
	KeyLeft:   bitLeft,
	KeyBottom: bitBottom,
	KeyRight:  bitRight,
}

// Parser reads identifiers like
// "TCGA-3C-AALI-01Z-00-DX1_roi-0_left-15953_top-45779_right-18001_bottom-47827".
// Skip drops that many leading structural tokens before key-value parsing.
type Parser struct {
	Skip int
}

// Token is one key-value component of an identifier.
type Token struct {
	Key   string
	Value string
}

// Tokens returns every key-value token after the skipped prefix, in order.
// Components without a '-' separator are dropped.
func (p Parser) Tokens(identifier string) []Token {
	components := strings.Split(identifier, "_")

	if p.Skip > 0 {
		if p.Skip >= len(components) {
			return nil
		}

		components = components[p.Skip:]
	}

	var result []Token

	for _, c := range components {
		key, value, ok := strings.Cut(c, "-")

		if !ok {
			continue
		}

		result = append(result, Token{
			Key:   key,
			Value: value,
		})
	}

	return result
}

func (p Parser) Parse(identifier string) (Region, error) {
	var region Region

	for _, t := range p.Tokens(identifier) {
		if _, ok := keyBits[t.Key]; !ok {
			continue
		}

		val, err := strconv.Atoi(t.Value)

		if err != nil {
			return region, fmt.Errorf("%w: %s-%s", ErrMalformedToken, t.Key, t.Value)
		}

		region.set(t.Key, val)
	}

	return region, nil
}

// Parse parses an identifier without skipping any leading tokens.
func Parse(identifier string) (Region, error) {
	return Parser{}.Parse(identifier)
}
