package coordinate

import (
	"encoding/json"
	"fmt"
)

// Verb is the operation applied to every node of a group.  The coordinator
// deliberately supports only create and delete: these are the two verbs for
// which a deterministic compensating action exists.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbCreate
	VerbDelete
)

// String returns the wire name of the verb.
func (v Verb) String() string {
	switch v {
	case VerbCreate:
		return "create"
	case VerbDelete:
		return "delete"
	default:
		return fmt.Sprintf("unknown Verb: %d", int(v))
	}
}

// ParseVerb parses the wire name of a verb.
func ParseVerb(s string) (Verb, error) {
	switch s {
	case "create":
		return VerbCreate, nil
	case "delete":
		return VerbDelete, nil
	default:
		return VerbUnknown, fmt.Errorf("unsupported action %q", s)
	}
}

// DeletePolicy selects the compensating action for a delete.  Re-creating a
// deleted resource is only sound when the original payload fully describes
// it, so the choice is configuration, not something the coordinator can
// infer.
type DeletePolicy int

const (
	// DeleteRecreate compensates a delete by re-creating the resource from
	// the payload carried on the original ActionSpec.
	DeleteRecreate DeletePolicy = iota
	// DeleteNoCompensate declares deletes non-compensable; nodes that
	// already deleted are left as-is and the compensation is recorded as a
	// no-op success.
	DeleteNoCompensate
)

// ActionSpec describes one logical write to be applied identically across a
// group.  It is immutable for the lifetime of a Coordinate call.
type ActionSpec struct {
	// Verb is the operation, create or delete.
	Verb Verb
	// Resource is the target path on every node, without leading slash.
	Resource string
	// Payload is the optional JSON request body.  For DeleteRecreate it
	// doubles as the snapshot the compensating create is built from.
	Payload json.RawMessage
}

// Inverse derives the compensating ActionSpec under the given policy.  The
// second return value is false when no compensation applies (delete under
// DeleteNoCompensate); callers then record a synthetic no-op success.
func (a ActionSpec) Inverse(policy DeletePolicy) (ActionSpec, bool) {
	switch a.Verb {
	case VerbCreate:
		return ActionSpec{Verb: VerbDelete, Resource: a.Resource, Payload: a.Payload}, true
	case VerbDelete:
		if policy == DeleteNoCompensate {
			return ActionSpec{}, false
		}
		return ActionSpec{Verb: VerbCreate, Resource: a.Resource, Payload: a.Payload}, true
	default:
		return ActionSpec{}, false
	}
}

// Validate checks that the spec can be dispatched.
func (a ActionSpec) Validate() error {
	if a.Verb != VerbCreate && a.Verb != VerbDelete {
		return fmt.Errorf("action verb must be create or delete")
	}
	if a.Resource == "" {
		return fmt.Errorf("action resource must not be empty")
	}
	return nil
}
