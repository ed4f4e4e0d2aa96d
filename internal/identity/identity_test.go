package identity

import "testing"

func TestNewOperatorHashesPassword(t *testing.T) {
	op, err := NewOperator(RegisterOperatorRequest{
		Email:    "Doctor@Example.Com",
		Password: "correct-horse",
		FullName: "Dr. Amina Yusuf",
	})
	if err != nil {
		t.Fatalf("NewOperator failed: %v", err)
	}

	if op.Email != "doctor@example.com" {
		t.Errorf("Expected lowercased email, got %q", op.Email)
	}
	if op.PasswordHash == "correct-horse" || op.PasswordHash == "" {
		t.Error("Expected password to be hashed")
	}
	if !op.CheckPassword("correct-horse") {
		t.Error("Expected matching password to verify")
	}
	if op.CheckPassword("wrong-horse") {
		t.Error("Expected mismatched password to fail")
	}
}

func TestNewOperatorValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   RegisterOperatorRequest
		field string
	}{
		{
			name:  "missing email",
			req:   RegisterOperatorRequest{Password: "longenough", FullName: "A"},
			field: "email",
		},
		{
			name:  "email without at sign",
			req:   RegisterOperatorRequest{Email: "nope", Password: "longenough", FullName: "A"},
			field: "email",
		},
		{
			name:  "short password",
			req:   RegisterOperatorRequest{Email: "a@b.c", Password: "short", FullName: "A"},
			field: "password",
		},
		{
			name:  "missing name",
			req:   RegisterOperatorRequest{Email: "a@b.c", Password: "longenough"},
			field: "full_name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOperator(tt.req)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if _, ok := err.Details[tt.field]; !ok {
				t.Errorf("Expected details for field %q, got %v", tt.field, err.Details)
			}
		})
	}
}
