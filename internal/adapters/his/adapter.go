// Package his imports scheduled visits from a legacy hospital
// information system into the appointment tables. The legacy side is a
// SQL Server database we can only read; visits are pulled on a timer
// and deduplicated by their source row ID.
package his

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/healthreach/platform/internal/appointment"
	"github.com/healthreach/platform/internal/shared/config"
	"github.com/healthreach/platform/internal/shared/metrics"
	"github.com/healthreach/platform/internal/shared/types"
)

// AppointmentStore is the subset of the appointment repository the
// importer writes through
type AppointmentStore interface {
	Create(ctx context.Context, a *appointment.Appointment) error
	ExistsByExternalRef(ctx context.Context, ref string) (bool, error)
}

// Adapter polls the legacy visit table and creates appointments
type Adapter struct {
	store  AppointmentStore
	config config.HISConfig

	db       *sql.DB
	running  bool
	mu       sync.RWMutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// New creates a new HIS import adapter
func New(cfg config.HISConfig, store AppointmentStore) *Adapter {
	return &Adapter{store: store, config: cfg}
}

// Start opens the legacy database connection and begins polling
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("adapter already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		a.config.Host,
		a.config.Port,
		a.config.Database,
		a.config.User,
		a.config.Password,
	)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open legacy database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping legacy database: %w", err)
	}

	interval := time.Duration(a.config.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	a.db = db
	a.running = true
	a.lastPoll = time.Now().Add(-interval)

	pollCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go a.pollLoop(pollCtx, interval)

	return nil
}

// Stop halts polling and closes the legacy connection
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.db != nil {
		a.db.Close()
	}

	a.running = false
	return nil
}

// Health checks legacy database connectivity
func (a *Adapter) Health(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.running {
		return fmt.Errorf("adapter not running")
	}

	return a.db.PingContext(ctx)
}

// IsConnected returns connection status
func (a *Adapter) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running && a.db != nil
}

func (a *Adapter) pollLoop(ctx context.Context, interval time.Duration) {
	defer a.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			lastPoll := a.lastPoll
			a.lastPoll = time.Now()
			a.mu.Unlock()

			if err := a.importVisits(ctx, lastPoll); err != nil {
				log.Printf("his: import sweep failed: %v", err)
			}
		}
	}
}

// importVisits pulls visit rows created since the last sweep and
// writes them as appointments. Rows without a resolvable client
// reference are skipped, not failed.
func (a *Adapter) importVisits(ctx context.Context, since time.Time) error {
	query := fmt.Sprintf(`
		SELECT
			v.VisitID,
			v.ClientRef,
			v.ScheduledAt,
			v.Notes,
			v.CreatedAt
		FROM %s v
		WHERE v.CreatedAt > @since
		ORDER BY v.CreatedAt ASC
	`, a.config.VisitTable)

	rows, err := a.db.QueryContext(ctx, query, sql.Named("since", since))
	if err != nil {
		return fmt.Errorf("failed to query visits: %w", err)
	}
	defer rows.Close()

	type visit struct {
		id          string
		clientRef   string
		scheduledAt time.Time
		notes       string
	}

	var visits []visit
	for rows.Next() {
		var v visit
		var notes sql.NullString
		var createdAt time.Time

		if err := rows.Scan(&v.id, &v.clientRef, &v.scheduledAt, &notes, &createdAt); err != nil {
			log.Printf("his: skipping unreadable visit row: %v", err)
			continue
		}
		if notes.Valid {
			v.notes = notes.String
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read visits: %w", err)
	}

	imported := 0
	for _, v := range visits {
		ref := "his-" + v.id

		exists, err := a.store.ExistsByExternalRef(ctx, ref)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		clientID, err := types.ParseID(v.clientRef)
		if err != nil {
			log.Printf("his: visit %s has no valid client reference, skipping", v.id)
			continue
		}

		now := time.Now()
		appt := &appointment.Appointment{
			ID:          types.NewID(),
			ClientID:    clientID,
			ScheduledAt: v.scheduledAt,
			Status:      appointment.StatusScheduled,
			Notes:       v.notes,
			ExternalRef: ref,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := a.store.Create(ctx, appt); err != nil {
			log.Printf("his: failed to import visit %s: %v", v.id, err)
			continue
		}
		imported++
	}

	if imported > 0 {
		metrics.RecordAppointmentsImported(imported)
		log.Printf("his: imported %d appointments", imported)
	}

	return nil
}
