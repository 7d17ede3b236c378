package query

import "fmt"

// InvalidTemplateError reports a template requested by an unknown name.
type InvalidTemplateError struct {
	Template string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("query: unknown template %q", e.Template)
}

// MissingArgumentError reports a template invoked without a required
// positional argument.
type MissingArgumentError struct {
	Template string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("query: template %q missing required argument %q", e.Template, e.Argument)
}

// SyntaxError reports a structured query that cannot be rendered or an
// argument that cannot be interpreted.
type SyntaxError struct {
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("query: %s", e.Reason)
}
