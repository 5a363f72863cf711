package fusion

import (
	"fmt"
	"strings"

	language "github.com/hanpama/fusiongraph/internal/language"
)

// Violation is a directive-shape or consistency problem found while reading a
// configuration document.
type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

func (v *Violation) String() string {
	if v.Line == 0 {
		return v.Message
	}
	return fmt.Sprintf("%s (%s:%d:%d)", v.Message, v.File, v.Line, v.Column)
}

// ValidationError aggregates every violation of a single read.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("fusion: invalid configuration:\n")
	for _, v := range e {
		b.WriteString("- ")
		b.WriteString(v.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Core primitive used by all template helpers.
func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos == nil {
		return v
	}
	v.Line = pos.Line
	v.Column = pos.Column
	if pos.Src != nil {
		v.File = pos.Src.Name
	}
	return v
}
