package vm

import "fmt"

// Segment is one of the VM's virtual memory segments.
type Segment int

const (
	Local Segment = iota
	Argument
	This
	That
	Temp
	Pointer
	Static
	Constant
)

var segmentNames = [...]string{
	Local:    "local",
	Argument: "argument",
	This:     "this",
	That:     "that",
	Temp:     "temp",
	Pointer:  "pointer",
	Static:   "static",
	Constant: "constant",
}

var segmentsByName = map[string]Segment{
	"local":    Local,
	"argument": Argument,
	"this":     This,
	"that":     That,
	"temp":     Temp,
	"pointer":  Pointer,
	"static":   Static,
	"constant": Constant,
}

// ParseSegment maps a segment name to its Segment.
func ParseSegment(name string) (Segment, bool) {
	s, ok := segmentsByName[name]
	return s, ok
}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return fmt.Sprintf("Segment(%d)", int(s))
	}
	return segmentNames[s]
}

// Segments lists every segment in declaration order.
func Segments() []Segment {
	return []Segment{Local, Argument, This, That, Temp, Pointer, Static, Constant}
}
