// Package naming implements the resource identifier grammar.
//
// Two forms exist. The general form joins uppercase tokens with dashes,
// e.g. "WS-AV01-DEV-Processing". Capacity identifiers use a stricter
// variant: all lowercase, no separators, e.g. "fcav01prodengineering",
// because the underlying platform rejects anything else in capacity names.
package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidIdentifier is returned by Parse for malformed raw input.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidField is returned by Compose when a field set fails validation.
	ErrInvalidField = errors.New("invalid identifier field")
)

// Stage is the deployment stage embedded in an identifier.
// The empty value means the item is not stage-bound.
type Stage string

const (
	StageNone Stage = ""
	StageDev  Stage = "DEV"
	StageTest Stage = "TEST"
	StageProd Stage = "PROD"
)

// Item type tags. The enumeration is open: any 2-4 letter tag parses,
// these are just the ones the inventory uses.
const (
	TypeCapacity      = "FC"
	TypeWorkspace     = "WS"
	TypeSecurityGroup = "SG"
)

// Identifier is the decomposed form of a resource name.
type Identifier struct {
	ItemType    string // e.g. "FC", "WS", "SG"
	ProjectCode string // 2-letter domain tag + 2-digit version, e.g. "AV01"
	Stage       Stage
	Description string
}

// ArchitectureVersion extracts the numeric version from the project code.
func (id Identifier) ArchitectureVersion() int {
	if len(id.ProjectCode) != 4 {
		return 0
	}
	v, _ := strconv.Atoi(id.ProjectCode[2:])
	return v
}

// IsCapacity reports whether the identifier names a capacity resource.
func (id Identifier) IsCapacity() bool {
	return id.ItemType == TypeCapacity
}

// Parse decomposes a raw identifier. Parsing is all-or-nothing: malformed
// input returns ErrInvalidIdentifier and the zero Identifier.
//
// Raw values containing a dash are parsed with the general grammar;
// everything else must be a strict capacity identifier.
func Parse(raw string) (Identifier, error) {
	if raw == "" {
		return Identifier{}, fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	}
	if strings.Contains(raw, "-") {
		return parseGeneral(raw)
	}
	return parseCapacity(raw)
}

// Compose builds the raw identifier for a field set. Invalid fields fail
// with ErrInvalidField; Compose never emits a malformed string.
func Compose(id Identifier) (string, error) {
	if err := validateFields(id); err != nil {
		return "", err
	}
	if id.IsCapacity() {
		raw := strings.ToLower(id.ItemType + id.ProjectCode + string(id.Stage) + id.Description)
		return raw, nil
	}
	parts := []string{id.ItemType, id.ProjectCode}
	if id.Stage != StageNone {
		parts = append(parts, string(id.Stage))
	}
	parts = append(parts, id.Description)
	return strings.Join(parts, "-"), nil
}

func parseGeneral(raw string) (Identifier, error) {
	parts := strings.Split(raw, "-")
	if len(parts) < 3 || len(parts) > 4 {
		return Identifier{}, fmt.Errorf("%w: %q has %d segments, want 3 or 4", ErrInvalidIdentifier, raw, len(parts))
	}

	id := Identifier{ItemType: parts[0], ProjectCode: parts[1]}
	if len(parts) == 4 {
		stage, ok := asStage(parts[2])
		if !ok {
			return Identifier{}, fmt.Errorf("%w: %q is not a deployment stage", ErrInvalidIdentifier, parts[2])
		}
		id.Stage = stage
		id.Description = parts[3]
	} else {
		id.Description = parts[2]
	}

	if id.ItemType == TypeCapacity {
		// capacity names never carry separators
		return Identifier{}, fmt.Errorf("%w: capacity identifier %q must be lowercase without separators", ErrInvalidIdentifier, raw)
	}
	if err := validateFields(id); err != nil {
		return Identifier{}, fmt.Errorf("%w: %q: %v", ErrInvalidIdentifier, raw, err)
	}
	return id, nil
}

func parseCapacity(raw string) (Identifier, error) {
	if raw != strings.ToLower(raw) {
		return Identifier{}, fmt.Errorf("%w: capacity identifier %q contains uppercase", ErrInvalidIdentifier, raw)
	}
	prefix := strings.ToLower(TypeCapacity)
	if !strings.HasPrefix(raw, prefix) {
		return Identifier{}, fmt.Errorf("%w: capacity identifier %q must start with %q", ErrInvalidIdentifier, raw, prefix)
	}
	rest := raw[len(prefix):]
	if len(rest) < 4 {
		return Identifier{}, fmt.Errorf("%w: %q is too short", ErrInvalidIdentifier, raw)
	}

	code := strings.ToUpper(rest[:4])
	rest = rest[4:]

	var stage Stage
	for _, s := range []Stage{StageDev, StageTest, StageProd} {
		token := strings.ToLower(string(s))
		if strings.HasPrefix(rest, token) {
			stage = s
			rest = rest[len(token):]
			break
		}
	}
	if stage == StageNone {
		return Identifier{}, fmt.Errorf("%w: %q has no deployment stage", ErrInvalidIdentifier, raw)
	}

	id := Identifier{
		ItemType:    TypeCapacity,
		ProjectCode: code,
		Stage:       stage,
		Description: rest,
	}
	if err := validateFields(id); err != nil {
		return Identifier{}, fmt.Errorf("%w: %q: %v", ErrInvalidIdentifier, raw, err)
	}
	return id, nil
}

func validateFields(id Identifier) error {
	if !isTag(id.ItemType) {
		return fmt.Errorf("%w: item type %q must be 2-4 uppercase letters", ErrInvalidField, id.ItemType)
	}
	if err := validateProjectCode(id.ProjectCode); err != nil {
		return err
	}
	switch id.Stage {
	case StageNone, StageDev, StageTest, StageProd:
	default:
		return fmt.Errorf("%w: unknown deployment stage %q", ErrInvalidField, id.Stage)
	}
	if id.IsCapacity() {
		if id.Stage == StageNone {
			return fmt.Errorf("%w: capacity identifiers require a deployment stage", ErrInvalidField)
		}
		if !isLowerWord(id.Description) {
			return fmt.Errorf("%w: capacity description %q must be lowercase letters and digits", ErrInvalidField, id.Description)
		}
		return nil
	}
	if !isWord(id.Description) {
		return fmt.Errorf("%w: description %q must be letters and digits without separators", ErrInvalidField, id.Description)
	}
	return nil
}

func validateProjectCode(code string) error {
	if len(code) != 4 {
		return fmt.Errorf("%w: project code %q must be 2 letters and 2 digits", ErrInvalidField, code)
	}
	for _, r := range code[:2] {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: project code %q must start with 2 uppercase letters", ErrInvalidField, code)
		}
	}
	v, err := strconv.Atoi(code[2:])
	if err != nil || v < 1 || v > 99 {
		return fmt.Errorf("%w: project code %q version must be 01-99", ErrInvalidField, code)
	}
	return nil
}

func asStage(s string) (Stage, bool) {
	switch Stage(s) {
	case StageDev, StageTest, StageProd:
		return Stage(s), true
	}
	return StageNone, false
}

func isTag(s string) bool {
	if len(s) < 2 || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isLowerWord(s string) bool {
	return isWord(s) && s == strings.ToLower(s)
}
