package client

import (
	"time"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
)

// Status defines the care status of a client
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
	StatusHighRisk Status = "High Risk"
)

// KnownStatuses lists every status value the application assigns
var KnownStatuses = []Status{StatusActive, StatusInactive, StatusHighRisk}

// Name is a client's legal name
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Full returns the client's full name
func (n Name) Full() string {
	return n.First + " " + n.Last
}

// EmergencyContact is the person to notify in an emergency
type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// Contact holds a client's contact details
type Contact struct {
	Phone     string           `json:"phone"`
	Email     string           `json:"email"`
	Address   string           `json:"address"`
	Emergency EmergencyContact `json:"emergency_contact"`
}

// Medical holds a client's medical background
type Medical struct {
	BloodType   string   `json:"blood_type"`
	Allergies   []string `json:"allergies"`
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
}

// Demographics holds demographic attributes
type Demographics struct {
	MaritalStatus string `json:"marital_status"`
	Occupation    string `json:"occupation"`
	Language      string `json:"language"`
}

// Client is a person under care
type Client struct {
	ID           types.ID     `json:"id"`
	Name         Name         `json:"name"`
	DateOfBirth  time.Time    `json:"date_of_birth"`
	Gender       string       `json:"gender"`
	Pronouns     string       `json:"pronouns,omitempty"`
	Contact      Contact      `json:"contact"`
	Medical      Medical      `json:"medical"`
	Demographics Demographics `json:"demographics"`
	Status       Status       `json:"status"`

	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateClientRequest is the request to register a client
type CreateClientRequest struct {
	Name         Name         `json:"name"`
	DateOfBirth  string       `json:"date_of_birth"` // YYYY-MM-DD
	Gender       string       `json:"gender"`
	Pronouns     string       `json:"pronouns"`
	Contact      Contact      `json:"contact"`
	Medical      Medical      `json:"medical"`
	Demographics Demographics `json:"demographics"`
}

// UpdateClientRequest replaces all mutable fields of a client
type UpdateClientRequest struct {
	Name         Name         `json:"name"`
	DateOfBirth  string       `json:"date_of_birth"`
	Gender       string       `json:"gender"`
	Pronouns     string       `json:"pronouns"`
	Contact      Contact      `json:"contact"`
	Medical      Medical      `json:"medical"`
	Demographics Demographics `json:"demographics"`
	Status       Status       `json:"status"`
}

// ListClientsFilter defines filters for listing clients
type ListClientsFilter struct {
	Search string  `json:"search,omitempty"`
	Status *Status `json:"status,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

const dateLayout = "2006-01-02"

// Validate checks the mandatory registration fields: first name,
// last name, date of birth and phone.
func Validate(name Name, dateOfBirth, phone string) (time.Time, *errors.AppError) {
	details := map[string]string{}
	if name.First == "" {
		details["first_name"] = "first name is required"
	}
	if name.Last == "" {
		details["last_name"] = "last name is required"
	}
	if phone == "" {
		details["phone"] = "phone is required"
	}

	var dob time.Time
	if dateOfBirth == "" {
		details["date_of_birth"] = "date of birth is required"
	} else {
		parsed, err := time.Parse(dateLayout, dateOfBirth)
		if err != nil {
			details["date_of_birth"] = "date of birth must be YYYY-MM-DD"
		} else {
			dob = parsed
		}
	}

	if len(details) > 0 {
		return time.Time{}, errors.Validation("validation failed", details)
	}
	return dob, nil
}

// NewClient builds a validated client from a registration request.
// Optional set-valued fields default to empty sets, never nil.
func NewClient(req CreateClientRequest) (*Client, *errors.AppError) {
	dob, verr := Validate(req.Name, req.DateOfBirth, req.Contact.Phone)
	if verr != nil {
		return nil, verr
	}

	now := time.Now()
	c := &Client{
		ID:           types.NewID(),
		Name:         req.Name,
		DateOfBirth:  dob,
		Gender:       req.Gender,
		Pronouns:     req.Pronouns,
		Contact:      req.Contact,
		Medical:      req.Medical,
		Demographics: req.Demographics,
		Status:       StatusActive,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	c.normalize()

	return c, nil
}

// Apply replaces the client's mutable fields from an update request
func (c *Client) Apply(req UpdateClientRequest) *errors.AppError {
	dob, verr := Validate(req.Name, req.DateOfBirth, req.Contact.Phone)
	if verr != nil {
		return verr
	}

	c.Name = req.Name
	c.DateOfBirth = dob
	c.Gender = req.Gender
	c.Pronouns = req.Pronouns
	c.Contact = req.Contact
	c.Medical = req.Medical
	c.Demographics = req.Demographics
	if req.Status != "" {
		c.Status = req.Status
	}
	c.UpdatedAt = time.Now()
	c.normalize()

	return nil
}

func (c *Client) normalize() {
	if c.Medical.Allergies == nil {
		c.Medical.Allergies = []string{}
	}
	if c.Medical.Conditions == nil {
		c.Medical.Conditions = []string{}
	}
	if c.Medical.Medications == nil {
		c.Medical.Medications = []string{}
	}
}
