package selection

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxCallbackBytes is the largest payload a callback button can carry
	MaxCallbackBytes = 64
	// IDLength is the length of an encoded selection id
	IDLength = 22

	choicePrefix = "PROJECT"
	cancelPrefix = "CANCEL"
)

// Action is what a callback asks for
type Action string

const (
	ActionChoose Action = "choose"
	ActionCancel Action = "cancel"
)

// Callback is a decoded callback payload
type Callback struct {
	Action      Action
	SelectionID string
	Index       int
}

// NewID returns a random selection id: the 16 bytes of a v4 uuid in
// unpadded base64url
func NewID() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// ValidID reports whether id has the shape NewID produces
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil && len(raw) == 16
}

// EncodeChoice builds the payload for choosing candidate index of selection id
func EncodeChoice(id string, index int) string {
	return choicePrefix + "|" + id + "|" + strconv.Itoa(index)
}

// EncodeCancel builds the payload for canceling selection id
func EncodeCancel(id string) string {
	return cancelPrefix + "|" + id
}

// ParseCallback decodes a payload built by EncodeChoice or EncodeCancel.
// Malformed payloads and malformed ids are reported as not found.
func ParseCallback(data string) (Callback, error) {
	if data == "" || len(data) > MaxCallbackBytes {
		return Callback{}, notFound("malformed callback payload")
	}

	parts := strings.Split(data, "|")
	switch {
	case parts[0] == choicePrefix && len(parts) == 3:
		if !ValidID(parts[1]) {
			return Callback{}, notFound("malformed selection id")
		}
		index, err := strconv.Atoi(parts[2])
		if err != nil || index < 0 {
			return Callback{}, notFound(fmt.Sprintf("malformed candidate index %q", parts[2]))
		}
		return Callback{Action: ActionChoose, SelectionID: parts[1], Index: index}, nil
	case parts[0] == cancelPrefix && len(parts) == 2:
		if !ValidID(parts[1]) {
			return Callback{}, notFound("malformed selection id")
		}
		return Callback{Action: ActionCancel, SelectionID: parts[1]}, nil
	default:
		return Callback{}, notFound("unknown callback payload")
	}
}
