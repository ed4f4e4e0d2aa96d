package program

import (
	"fmt"
	"time"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
)

// Category defines the intervention category of a program
type Category string

const (
	CategoryInfectiousDiseases Category = "Infectious Diseases"
	CategoryChronicCare        Category = "Chronic Care"
	CategoryMaternalHealth     Category = "Maternal Health"
	CategoryChildHealth        Category = "Child Health"
	CategoryMentalHealth       Category = "Mental Health"
)

// Status defines the lifecycle status of a program
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusActive    Status = "Active"
	StatusPaused    Status = "Paused"
	StatusCompleted Status = "Completed"
)

// Program is a health intervention program
type Program struct {
	ID          types.ID `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	TargetPopulation []string `json:"target_population"`
	Conditions       []string `json:"conditions"`
	Interventions    []string `json:"interventions"`
	Protocols        []string `json:"protocols"`
	ResponsibleStaff []string `json:"responsible_staff"`
	Locations        []string `json:"locations"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Status    Status     `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateProgramRequest is the request to create a program
type CreateProgramRequest struct {
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	TargetPopulation []string `json:"target_population"`
	Conditions       []string `json:"conditions"`
	Interventions    []string `json:"interventions"`
	Protocols        []string `json:"protocols"`
	ResponsibleStaff []string `json:"responsible_staff"`
	Locations        []string `json:"locations"`

	StartDate string `json:"start_date"` // YYYY-MM-DD, optional
	EndDate   string `json:"end_date"`
	Status    Status `json:"status"`
}

// UpdateProgramRequest replaces the mutable fields of a program
type UpdateProgramRequest = CreateProgramRequest

// ListProgramsFilter defines filters for listing programs
type ListProgramsFilter struct {
	Search   string    `json:"search,omitempty"`
	Status   *Status   `json:"status,omitempty"`
	Category *Category `json:"category,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

const dateLayout = "2006-01-02"

// GenerateCode produces the fallback program code used when the
// operator leaves code empty. Collisions are possible at millisecond
// granularity; the database unique index is the backstop.
func GenerateCode() string {
	return fmt.Sprintf("PRG-%d", time.Now().UnixMilli())
}

// Validate checks the mandatory fields: name and category.
func Validate(name string, category Category) *errors.AppError {
	details := map[string]string{}
	if name == "" {
		details["name"] = "name is required"
	}
	if category == "" {
		details["category"] = "category is required"
	}

	if len(details) > 0 {
		return errors.Validation("validation failed", details)
	}
	return nil
}

// NewProgram builds a validated program from a create request,
// generating a code when none is supplied.
func NewProgram(req CreateProgramRequest) (*Program, *errors.AppError) {
	if verr := Validate(req.Name, req.Category); verr != nil {
		return nil, verr
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, errors.Validation("validation failed", map[string]string{"start_date": "start date must be YYYY-MM-DD"})
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, errors.Validation("validation failed", map[string]string{"end_date": "end date must be YYYY-MM-DD"})
	}

	code := req.Code
	if code == "" {
		code = GenerateCode()
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}

	now := time.Now()
	p := &Program{
		ID:               types.NewID(),
		Code:             code,
		Name:             req.Name,
		Description:      req.Description,
		Category:         req.Category,
		TargetPopulation: req.TargetPopulation,
		Conditions:       req.Conditions,
		Interventions:    req.Interventions,
		Protocols:        req.Protocols,
		ResponsibleStaff: req.ResponsibleStaff,
		Locations:        req.Locations,
		StartDate:        startDate,
		EndDate:          endDate,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	p.normalize()

	return p, nil
}

// Apply replaces the program's mutable fields from an update request.
// An empty code keeps the existing one.
func (p *Program) Apply(req UpdateProgramRequest) *errors.AppError {
	if verr := Validate(req.Name, req.Category); verr != nil {
		return verr
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return errors.Validation("validation failed", map[string]string{"start_date": "start date must be YYYY-MM-DD"})
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return errors.Validation("validation failed", map[string]string{"end_date": "end date must be YYYY-MM-DD"})
	}

	if req.Code != "" {
		p.Code = req.Code
	}
	p.Name = req.Name
	p.Description = req.Description
	p.Category = req.Category
	p.TargetPopulation = req.TargetPopulation
	p.Conditions = req.Conditions
	p.Interventions = req.Interventions
	p.Protocols = req.Protocols
	p.ResponsibleStaff = req.ResponsibleStaff
	p.Locations = req.Locations
	p.StartDate = startDate
	p.EndDate = endDate
	if req.Status != "" {
		p.Status = req.Status
	}
	p.UpdatedAt = time.Now()
	p.normalize()

	return nil
}

func (p *Program) normalize() {
	if p.TargetPopulation == nil {
		p.TargetPopulation = []string{}
	}
	if p.Conditions == nil {
		p.Conditions = []string{}
	}
	if p.Interventions == nil {
		p.Interventions = []string{}
	}
	if p.Protocols == nil {
		p.Protocols = []string{}
	}
	if p.ResponsibleStaff == nil {
		p.ResponsibleStaff = []string{}
	}
	if p.Locations == nil {
		p.Locations = []string{}
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
