package database

import "testing"

func TestSQLOperation(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT id FROM clients", "select"},
		{"INSERT INTO enrollments (id) VALUES ($1)", "insert"},
		{"UPDATE programs SET name = $1", "update"},
		{"DELETE FROM appointments WHERE id = $1", "delete"},
		{"\n\tSELECT COUNT(*) FROM enrollments", "select"},
		{"", "unknown"},
		{"   ", "unknown"},
	}

	for _, tt := range tests {
		if got := sqlOperation(tt.sql); got != tt.want {
			t.Errorf("sqlOperation(%q) = %q, want %q", tt.sql, got, tt.want)
		}
	}
}
