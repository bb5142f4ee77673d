package table

import "fmt"

// ColumnNotFoundError is returned when an operation references a column name
// that the table does not contain.
type ColumnNotFoundError struct {
	Name string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Name)
}

// TypeMismatchError is returned when an operation needs a column of a
// different kind, e.g. a numeric comparison against a string column.
type TypeMismatchError struct {
	Column string
	Got    Kind
	Want   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q has kind %s, want %s", e.Column, e.Got, e.Want)
}
