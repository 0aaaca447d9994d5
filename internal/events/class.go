package events

import (
	"fmt"
	"strings"
)

// Class identifies one sound category the classifier scores. Code is the
// model's output column index and doubles as the ledger event-class code.
type Class struct {
	Code int
	Name string
}

// Built-in classes with reserved ledger codes.
var (
	ClassFarts = Class{Code: 60, Name: "farts"}
	ClassBurps = Class{Code: 58, Name: "burps"}
)

// DefaultClasses returns the classes scanned when none is selected explicitly.
func DefaultClasses() []Class {
	return []Class{ClassFarts, ClassBurps}
}

// ClassForCode maps a model column index to a Class, naming unknown indices
// after their code.
func ClassForCode(code int) Class {
	switch code {
	case ClassFarts.Code:
		return ClassFarts
	case ClassBurps.Code:
		return ClassBurps
	default:
		return Class{Code: code, Name: fmt.Sprintf("class %d", code)}
	}
}

// ClassNames joins class names for display ("farts and burps").
func ClassNames(classes []Class) string {
	names := make([]string, 0, len(classes))
	for _, class := range classes {
		names = append(names, class.Name)
	}
	return strings.Join(names, " and ")
}
