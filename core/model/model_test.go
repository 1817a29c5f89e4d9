package model

import (
	"testing"
	"time"
)

func TestAlertValidate(t *testing.T) {
	a := Alert{ID: "a1", RiskScore: 0.4, Amount: 100, Status: AlertActive, CreatedAt: time.Now()}
	if err := a.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.RiskScore = 1.5
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for out-of-range risk score")
	}
	a = Alert{RiskScore: 0.2}
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestAlertValidateLocation(t *testing.T) {
	a := Alert{ID: "a1", Location: &Location{Latitude: 120, Longitude: 0}}
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for invalid latitude")
	}
}

func TestUnitValidate(t *testing.T) {
	u := Unit{ID: "u1", Capacity: 3, Workload: 1, SuccessRate: 0.9}
	if err := u.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u.Workload = 4
	if err := u.Validate(); err == nil {
		t.Fatal("expected error when workload exceeds capacity")
	}
	u = Unit{ID: "u2", Capacity: 0}
	if err := u.Validate(); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestUnitHasSpecialization(t *testing.T) {
	u := Unit{ID: "u1", Capacity: 1, Specializations: []string{"cyber", "money_mule"}}
	if !u.HasSpecialization("cyber") {
		t.Error("expected cyber specialization")
	}
	if u.HasSpecialization("k9") {
		t.Error("unexpected k9 specialization")
	}
}

func TestActionValidate(t *testing.T) {
	a := Action{Kind: ActionFreeze, CaseID: "c1"}
	if err := a.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Kind = "reboot"
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	a = Action{Kind: ActionFreeze}
	if err := a.Validate(); err == nil {
		t.Fatal("expected error for missing case id")
	}
}
