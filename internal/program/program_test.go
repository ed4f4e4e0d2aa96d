package program

import (
	"regexp"
	"testing"
)

func TestValidateMandatoryFields(t *testing.T) {
	tests := []struct {
		name        string
		progName    string
		category    Category
		expectError bool
	}{
		{"Name and category present", "Malaria Control", CategoryInfectiousDiseases, false},
		{"Missing name", "", CategoryInfectiousDiseases, true},
		{"Missing category", "Malaria Control", "", true},
		{"Both missing", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.progName, tt.category)
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestGenerateCodePattern(t *testing.T) {
	code := GenerateCode()

	matched, err := regexp.MatchString(`^PRG-\d+$`, code)
	if err != nil {
		t.Fatalf("regexp error: %v", err)
	}
	if !matched {
		t.Errorf("Expected code matching PRG-<digits>, got %q", code)
	}
}

func TestNewProgramCodeFallback(t *testing.T) {
	// Empty code: generated
	p, err := NewProgram(CreateProgramRequest{
		Name:     "TB Screening",
		Category: CategoryInfectiousDiseases,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if p.Code == "" {
		t.Error("Expected generated code for empty input")
	}
	if matched, _ := regexp.MatchString(`^PRG-\d+$`, p.Code); !matched {
		t.Errorf("Expected generated code matching PRG-<digits>, got %q", p.Code)
	}

	// Supplied code: preserved unchanged
	p2, err := NewProgram(CreateProgramRequest{
		Name:     "TB Screening",
		Code:     "TB-2024",
		Category: CategoryInfectiousDiseases,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p2.Code != "TB-2024" {
		t.Errorf("Expected code TB-2024 preserved, got %q", p2.Code)
	}
}

func TestNewProgramDefaults(t *testing.T) {
	p, err := NewProgram(CreateProgramRequest{
		Name:     "Antenatal Care",
		Category: CategoryMaternalHealth,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if p.ID.IsZero() {
		t.Error("Program ID should not be zero")
	}
	if p.Status != StatusDraft {
		t.Errorf("Expected status %s, got %s", StatusDraft, p.Status)
	}

	// Set-valued fields default to empty sets, never nil
	sets := map[string][]string{
		"target_population": p.TargetPopulation,
		"conditions":        p.Conditions,
		"interventions":     p.Interventions,
		"protocols":         p.Protocols,
		"responsible_staff": p.ResponsibleStaff,
		"locations":         p.Locations,
	}
	for name, s := range sets {
		if s == nil {
			t.Errorf("Expected %s to default to empty set, got nil", name)
		}
	}
}

func TestNewProgramParsesDates(t *testing.T) {
	p, err := NewProgram(CreateProgramRequest{
		Name:      "Hypertension Clinic",
		Category:  CategoryChronicCare,
		StartDate: "2024-01-15",
		EndDate:   "2024-12-31",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if p.StartDate == nil || p.StartDate.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("Expected start date 2024-01-15, got %v", p.StartDate)
	}
	if p.EndDate == nil || p.EndDate.Format("2006-01-02") != "2024-12-31" {
		t.Errorf("Expected end date 2024-12-31, got %v", p.EndDate)
	}
}

func TestNewProgramRejectsMalformedDates(t *testing.T) {
	_, err := NewProgram(CreateProgramRequest{
		Name:      "Hypertension Clinic",
		Category:  CategoryChronicCare,
		StartDate: "15/01/2024",
	})
	if err == nil {
		t.Error("Expected validation error for malformed start date")
	}
}

func TestApplyKeepsCodeWhenEmpty(t *testing.T) {
	p, err := NewProgram(CreateProgramRequest{
		Name:     "Diabetes Support",
		Code:     "DM-01",
		Category: CategoryChronicCare,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	verr := p.Apply(UpdateProgramRequest{
		Name:     "Diabetes Support Group",
		Category: CategoryChronicCare,
		Status:   StatusActive,
	})
	if verr != nil {
		t.Fatalf("Expected no error, got %v", verr)
	}

	if p.Code != "DM-01" {
		t.Errorf("Expected code DM-01 kept, got %q", p.Code)
	}
	if p.Name != "Diabetes Support Group" {
		t.Errorf("Expected updated name, got %q", p.Name)
	}
	if p.Status != StatusActive {
		t.Errorf("Expected status %s, got %s", StatusActive, p.Status)
	}
}
