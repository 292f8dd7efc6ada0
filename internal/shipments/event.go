package shipments

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
)

// QueueEvent is the part of a queue message the consumer acts on.
type QueueEvent struct {
	ID     string
	Action enums.QueueAction
	Status string
	UserID string
}

// eventEnvelope is the outbound body: the full shipment record plus the action for non-create events.
type eventEnvelope struct {
	Shipment
	Action enums.QueueAction `json:"action,omitempty"`
}

type inboundEvent struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Status string `json:"status"`
	UserID string `json:"userId"`
}

// EncodeEvent serializes s for the queue. CREATE events carry no action field.
func EncodeEvent(action enums.QueueAction, s Shipment) ([]byte, error) {
	env := eventEnvelope{Shipment: s}
	if action != enums.QueueActionCreate {
		env.Action = action
	}
	return json.Marshal(env)
}

// DecodeQueueEvent parses a queue message body. Empty bodies, invalid JSON and missing ids
// are CodeMalformedMessage. A missing action means PROCESS; an unknown action is kept
// verbatim so routing can fall through to the default notification.
func DecodeQueueEvent(body []byte) (QueueEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return QueueEvent{}, pkgerrors.New(pkgerrors.CodeMalformedMessage, "empty message body")
	}
	var in inboundEvent
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return QueueEvent{}, pkgerrors.Wrap(pkgerrors.CodeMalformedMessage, err, "decode queue event")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return QueueEvent{}, pkgerrors.New(pkgerrors.CodeMalformedMessage, "queue event has no shipment id")
	}
	action, err := enums.ParseQueueAction(in.Action)
	if err != nil {
		action = enums.QueueAction(strings.ToUpper(strings.TrimSpace(in.Action)))
	}
	return QueueEvent{
		ID:     id,
		Action: action,
		Status: strings.TrimSpace(in.Status),
		UserID: in.UserID,
	}, nil
}
