package shipments

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
)

func TestEncodeEventCreateOmitsAction(t *testing.T) {
	s := Shipment{ID: "S1", UserID: "U1", Status: enums.ShipmentStatusCreated, Weight: 2.5}
	body, err := EncodeEvent(enums.QueueActionCreate, s)
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["action"]; ok {
		t.Fatalf("create body must not carry an action, got %s", body)
	}
	if raw["id"] != "S1" || raw["userId"] != "U1" || raw["status"] != "CREATED" {
		t.Fatalf("body should be the full record, got %s", body)
	}
}

func TestEncodeEventUpdateCarriesAction(t *testing.T) {
	body, err := EncodeEvent(enums.QueueActionUpdateStatus, Shipment{ID: "S1", Status: enums.ShipmentStatusDelivered})
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	evt, err := DecodeQueueEvent(body)
	if err != nil {
		t.Fatalf("DecodeQueueEvent: %v", err)
	}
	if evt.Action != enums.QueueActionUpdateStatus || evt.Status != "DELIVERED" || evt.ID != "S1" {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestDecodeQueueEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantAction enums.QueueAction
		malformed  bool
	}{
		{name: "empty", body: "", malformed: true},
		{name: "whitespace", body: "  \n", malformed: true},
		{name: "not json", body: "hello", malformed: true},
		{name: "no id", body: `{"action":"DELETE"}`, malformed: true},
		{name: "array", body: `[1,2]`, malformed: true},
		{name: "missing action defaults", body: `{"id":"S1"}`, wantAction: enums.QueueActionProcess},
		{name: "lowercase action", body: `{"id":"S1","action":"delete"}`, wantAction: enums.QueueActionDelete},
		{name: "unknown action kept", body: `{"id":"S1","action":"ARCHIVE"}`, wantAction: enums.QueueAction("ARCHIVE")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			evt, err := DecodeQueueEvent([]byte(tc.body))
			if tc.malformed {
				if !pkgerrors.IsCode(err, pkgerrors.CodeMalformedMessage) {
					t.Fatalf("expected malformed message error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeQueueEvent: %v", err)
			}
			if evt.Action != tc.wantAction {
				t.Fatalf("expected action %s, got %s", tc.wantAction, evt.Action)
			}
		})
	}
}
