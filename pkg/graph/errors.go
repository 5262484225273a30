package graph

import (
	"fmt"

	"github.com/ritzau/cross-streets/pkg/model"
)

// MalformedInputError reports a dangling or inconsistent reference in the
// input dataset. The index is never built from such data.
type MalformedInputError struct {
	Kind   string   // "edge" or "street"
	Ref    string   // Edge id or street name carrying the bad reference
	Target model.ID // The referenced id, when there is one
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("malformed input: %s %q %s %q", e.Kind, e.Ref, e.Reason, e.Target)
	}
	return fmt.Sprintf("malformed input: %s %q %s", e.Kind, e.Ref, e.Reason)
}

func malformedEdge(edge model.ID, reason string, target model.ID) error {
	return &MalformedInputError{Kind: "edge", Ref: string(edge), Reason: reason, Target: target}
}

func malformedStreet(street, reason string, target model.ID) error {
	return &MalformedInputError{Kind: "street", Ref: street, Reason: reason, Target: target}
}
