package client

import (
	"testing"
	"time"
)

func TestValidateMandatoryFields(t *testing.T) {
	tests := []struct {
		name        string
		first       string
		last        string
		dob         string
		phone       string
		expectError bool
	}{
		{"All fields present", "Jane", "Doe", "1990-04-12", "+254700000000", false},
		{"Missing first name", "", "Doe", "1990-04-12", "+254700000000", true},
		{"Missing last name", "Jane", "", "1990-04-12", "+254700000000", true},
		{"Missing date of birth", "Jane", "Doe", "", "+254700000000", true},
		{"Malformed date of birth", "Jane", "Doe", "12/04/1990", "+254700000000", true},
		{"Missing phone", "Jane", "Doe", "1990-04-12", "", true},
		{"Everything missing", "", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(Name{First: tt.first, Last: tt.last}, tt.dob, tt.phone)
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateIgnoresOptionalFields(t *testing.T) {
	// Optional fields empty, mandatory fields present: must pass
	dob, err := Validate(Name{First: "Amina", Last: "Otieno"}, "1985-01-30", "0712345678")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := time.Date(1985, 1, 30, 0, 0, 0, 0, time.UTC)
	if !dob.Equal(want) {
		t.Errorf("Expected DOB %v, got %v", want, dob)
	}
}

func TestValidateErrorDetails(t *testing.T) {
	_, err := Validate(Name{}, "", "")
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}

	for _, field := range []string{"first_name", "last_name", "date_of_birth", "phone"} {
		if _, ok := err.Details[field]; !ok {
			t.Errorf("Expected detail for field %q", field)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(CreateClientRequest{
		Name:        Name{First: "Jane", Last: "Doe"},
		DateOfBirth: "1990-04-12",
		Contact:     Contact{Phone: "+254700000000"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.ID.IsZero() {
		t.Error("Client ID should not be zero")
	}

	if c.Status != StatusActive {
		t.Errorf("Expected status %s, got %s", StatusActive, c.Status)
	}

	// Set-valued fields default to empty sets, never nil
	if c.Medical.Allergies == nil || c.Medical.Conditions == nil || c.Medical.Medications == nil {
		t.Error("Medical sets should default to empty, not nil")
	}

	if c.RegisteredAt.IsZero() || c.UpdatedAt.IsZero() {
		t.Error("Timestamps should be set on registration")
	}
}

func TestApplyReplacesMutableFields(t *testing.T) {
	c, err := NewClient(CreateClientRequest{
		Name:        Name{First: "Jane", Last: "Doe"},
		DateOfBirth: "1990-04-12",
		Contact:     Contact{Phone: "+254700000000"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	originalID := c.ID
	originalRegisteredAt := c.RegisteredAt

	verr := c.Apply(UpdateClientRequest{
		Name:        Name{First: "Jane", Last: "Smith"},
		DateOfBirth: "1990-04-12",
		Contact:     Contact{Phone: "+254711111111"},
		Medical:     Medical{Allergies: []string{"Penicillin"}},
		Status:      StatusHighRisk,
	})
	if verr != nil {
		t.Fatalf("Expected no error, got %v", verr)
	}

	if c.ID != originalID {
		t.Error("Apply must not change the client ID")
	}
	if !c.RegisteredAt.Equal(originalRegisteredAt) {
		t.Error("Apply must not change the registration timestamp")
	}
	if c.Name.Last != "Smith" {
		t.Errorf("Expected last name Smith, got %s", c.Name.Last)
	}
	if c.Contact.Phone != "+254711111111" {
		t.Errorf("Expected updated phone, got %s", c.Contact.Phone)
	}
	if c.Status != StatusHighRisk {
		t.Errorf("Expected status %s, got %s", StatusHighRisk, c.Status)
	}
	if len(c.Medical.Allergies) != 1 || c.Medical.Allergies[0] != "Penicillin" {
		t.Errorf("Expected allergies [Penicillin], got %v", c.Medical.Allergies)
	}
}

func TestApplyRejectsMissingMandatoryFields(t *testing.T) {
	c, err := NewClient(CreateClientRequest{
		Name:        Name{First: "Jane", Last: "Doe"},
		DateOfBirth: "1990-04-12",
		Contact:     Contact{Phone: "+254700000000"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	verr := c.Apply(UpdateClientRequest{
		Name:        Name{First: "", Last: "Doe"},
		DateOfBirth: "1990-04-12",
		Contact:     Contact{Phone: "+254700000000"},
	})
	if verr == nil {
		t.Error("Expected validation error for missing first name")
	}

	// Failed update must leave the record untouched
	if c.Name.First != "Jane" {
		t.Errorf("Client mutated by failed update: %s", c.Name.First)
	}
}

func TestFullName(t *testing.T) {
	n := Name{First: "Jane", Last: "Doe"}
	if n.Full() != "Jane Doe" {
		t.Errorf("Expected 'Jane Doe', got %q", n.Full())
	}
}
