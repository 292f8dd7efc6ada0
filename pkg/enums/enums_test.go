package enums

import "testing"

func TestParseShipmentStatus(t *testing.T) {
	got, err := ParseShipmentStatus(" in_transit ")
	if err != nil {
		t.Fatalf("ParseShipmentStatus: %v", err)
	}
	if got != ShipmentStatusInTransit {
		t.Fatalf("unexpected status %q", got)
	}
	if _, err := ParseShipmentStatus("LOST"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestTransitionPolicyAllows(t *testing.T) {
	tests := []struct {
		name   string
		policy TransitionPolicy
		from   ShipmentStatus
		to     ShipmentStatus
		want   bool
	}{
		{"forward next step", TransitionPolicyForward, ShipmentStatusCreated, ShipmentStatusProcessing, true},
		{"forward skip ahead", TransitionPolicyForward, ShipmentStatusCreated, ShipmentStatusDelivered, true},
		{"forward backwards", TransitionPolicyForward, ShipmentStatusInTransit, ShipmentStatusProcessing, false},
		{"forward same state", TransitionPolicyForward, ShipmentStatusProcessing, ShipmentStatusProcessing, false},
		{"forward fail from non terminal", TransitionPolicyForward, ShipmentStatusInTransit, ShipmentStatusFailed, true},
		{"forward out of delivered", TransitionPolicyForward, ShipmentStatusDelivered, ShipmentStatusFailed, false},
		{"forward out of failed", TransitionPolicyForward, ShipmentStatusFailed, ShipmentStatusProcessing, false},
		{"sequential next step", TransitionPolicySequential, ShipmentStatusProcessing, ShipmentStatusInTransit, true},
		{"sequential skip ahead", TransitionPolicySequential, ShipmentStatusCreated, ShipmentStatusDelivered, false},
		{"sequential fail", TransitionPolicySequential, ShipmentStatusCreated, ShipmentStatusFailed, true},
		{"permissive backwards", TransitionPolicyPermissive, ShipmentStatusDelivered, ShipmentStatusCreated, true},
		{"permissive invalid target", TransitionPolicyPermissive, ShipmentStatusCreated, ShipmentStatus("LOST"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Allows(tt.from, tt.to); got != tt.want {
				t.Fatalf("Allows(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseQueueActionDefaultsToProcess(t *testing.T) {
	got, err := ParseQueueAction("")
	if err != nil || got != QueueActionProcess {
		t.Fatalf("expected PROCESS default, got %q err=%v", got, err)
	}
	got, err = ParseQueueAction("delete")
	if err != nil || got != QueueActionDelete {
		t.Fatalf("expected DELETE, got %q err=%v", got, err)
	}
	if _, err := ParseQueueAction("ARCHIVE"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestParseTransitionPolicy(t *testing.T) {
	got, err := ParseTransitionPolicy("")
	if err != nil || got != TransitionPolicyForward {
		t.Fatalf("expected forward default, got %q err=%v", got, err)
	}
	if _, err := ParseTransitionPolicy("yolo"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
