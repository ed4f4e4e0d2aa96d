// Package dashboard derives summary statistics from entity collections.
// Every function here is pure: collections are fetched by the HTTP
// handler and aggregated in memory, with no queries of their own.
package dashboard

import (
	"fmt"
	"time"

	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/enrollment"
	"github.com/healthreach/platform/internal/program"
	"github.com/healthreach/platform/internal/shared/types"
)

// StatusOther collects clients whose status is not one of the known values
const StatusOther = "Other"

// StatusCount is one slice of the client status breakdown
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CountByStatus partitions clients by status. Known statuses always
// appear, even with zero clients; anything unrecognized lands in the
// Other bucket rather than being dropped.
func CountByStatus(clients []client.Client) []StatusCount {
	counts := make(map[client.Status]int, len(client.KnownStatuses))
	other := 0

	for _, c := range clients {
		known := false
		for _, s := range client.KnownStatuses {
			if c.Status == s {
				known = true
				break
			}
		}
		if known {
			counts[c.Status]++
		} else {
			other++
		}
	}

	result := make([]StatusCount, 0, len(client.KnownStatuses)+1)
	for _, s := range client.KnownStatuses {
		result = append(result, StatusCount{Status: string(s), Count: counts[s]})
	}
	result = append(result, StatusCount{Status: StatusOther, Count: other})

	return result
}

// ProgramCount is the enrollment count for one program
type ProgramCount struct {
	ProgramID   types.ID `json:"program_id"`
	ProgramName string   `json:"program_name"`
	Count       int      `json:"count"`
}

// EnrollmentsByProgram counts enrollments per program. Programs with no
// enrollments are included with count 0 so chart axes stay stable.
func EnrollmentsByProgram(enrollments []enrollment.Enrollment, programs []program.Program) []ProgramCount {
	counts := make(map[types.ID]int, len(programs))
	for _, e := range enrollments {
		counts[e.ProgramID]++
	}

	result := make([]ProgramCount, 0, len(programs))
	for _, p := range programs {
		result = append(result, ProgramCount{
			ProgramID:   p.ID,
			ProgramName: p.Name,
			Count:       counts[p.ID],
		})
	}

	return result
}

// MonthCount is the enrollment count for one calendar month
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// MonthlyEnrollmentTrend buckets enrollments by calendar month over the
// trailing windowMonths months ending at now's month, oldest first.
// Months with no enrollments report 0.
func MonthlyEnrollmentTrend(enrollments []enrollment.Enrollment, windowMonths int, now time.Time) []MonthCount {
	if windowMonths <= 0 {
		windowMonths = 6
	}

	// Anchor every bucket to the first of its month so arithmetic
	// is safe across month-length boundaries.
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type bucket struct {
		year  int
		month time.Month
	}

	index := make(map[bucket]int, windowMonths)
	result := make([]MonthCount, windowMonths)
	for i := 0; i < windowMonths; i++ {
		m := anchor.AddDate(0, i-windowMonths+1, 0)
		index[bucket{m.Year(), m.Month()}] = i
		result[i] = MonthCount{Month: m.Month().String()[:3]}
	}

	for _, e := range enrollments {
		b := bucket{e.EnrollmentDate.Year(), e.EnrollmentDate.Month()}
		if i, ok := index[b]; ok {
			result[i].Count++
		}
	}

	return result
}

// ActivityEntry is one human-readable line in the recent activity feed
type ActivityEntry struct {
	EnrollmentID types.ID  `json:"enrollment_id"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

// RecentActivityFeed renders the first limit enrollments as sentences,
// preserving the order the persistence layer returned them in. Missing
// client or program references degrade to generic wording instead of
// failing the whole feed.
func RecentActivityFeed(enrollments []enrollment.Enrollment, clients []client.Client, programs []program.Program, limit int) []ActivityEntry {
	if limit <= 0 {
		limit = 4
	}
	if limit > len(enrollments) {
		limit = len(enrollments)
	}

	clientNames := make(map[types.ID]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name.Full()
	}
	programNames := make(map[types.ID]string, len(programs))
	for _, p := range programs {
		programNames[p.ID] = p.Name
	}

	entries := make([]ActivityEntry, 0, limit)
	for _, e := range enrollments[:limit] {
		clientName, ok := clientNames[e.ClientID]
		if !ok {
			clientName = "A client"
		}
		programName, ok := programNames[e.ProgramID]
		if !ok {
			programName = "a program"
		}

		entries = append(entries, ActivityEntry{
			EnrollmentID: e.ID,
			Message:      fmt.Sprintf("%s was enrolled in %s", clientName, programName),
			Timestamp:    e.EnrollmentDate,
		})
	}

	return entries
}

// Summary holds the dashboard's headline cards
type Summary struct {
	TotalClients         int `json:"total_clients"`
	ActivePrograms       int `json:"active_programs"`
	EnrollmentsThisMonth int `json:"enrollments_this_month"`
	PendingFollowUps     int `json:"pending_follow_ups"`
}

// Summarize computes the headline card values. Pending follow-ups are
// the clients currently flagged High Risk.
func Summarize(clients []client.Client, programs []program.Program, enrollments []enrollment.Enrollment, now time.Time) Summary {
	s := Summary{TotalClients: len(clients)}

	for _, p := range programs {
		if p.Status == program.StatusActive {
			s.ActivePrograms++
		}
	}

	for _, e := range enrollments {
		if e.EnrollmentDate.Year() == now.Year() && e.EnrollmentDate.Month() == now.Month() {
			s.EnrollmentsThisMonth++
		}
	}

	for _, c := range clients {
		if c.Status == client.StatusHighRisk {
			s.PendingFollowUps++
		}
	}

	return s
}
