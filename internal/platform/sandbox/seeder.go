// Package sandbox generates reproducible demo data for development
// environments. Patients, invoices and ledger entries are written through
// the domain services so every insert bumps the matching cache version.
package sandbox

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/riteshgharti333/hospital-management-app-sub002/internal/domain/billing"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/domain/ledger"
	"github.com/riteshgharti333/hospital-management-app-sub002/internal/domain/patient"
)

// SeedConfig controls the volume of generated data. A zero Seed picks one
// from the clock.
type SeedConfig struct {
	PatientCount       int   `json:"patientCount" validate:"gte=0,lte=10000"`
	InvoicesPerPatient int   `json:"invoicesPerPatient" validate:"gte=0,lte=50"`
	Seed               int64 `json:"seed"`
}

// DefaultSeedConfig returns the volume used by the seed command.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{PatientCount: 50, InvoicesPerPatient: 2}
}

// SeedResult summarizes a seed run.
type SeedResult struct {
	Patients      int           `json:"patients"`
	Invoices      int           `json:"invoices"`
	LedgerEntries int           `json:"ledgerEntries"`
	Seed          int64         `json:"seed"`
	Duration      time.Duration `json:"duration"`
}

var (
	firstNames = []string{
		"Aarav", "Vivaan", "Aditya", "Arjun", "Sai", "Reyansh", "Krishna",
		"Ishaan", "Rohan", "Kabir", "Ananya", "Diya", "Aadhya", "Saanvi",
		"Kavya", "Meera", "Priya", "Riya", "Sneha", "Pooja", "James", "Mary",
		"Robert", "Linda", "David", "Sarah",
	}
	lastNames = []string{
		"Sharma", "Verma", "Gupta", "Patel", "Reddy", "Iyer", "Nair",
		"Singh", "Kumar", "Das", "Mehta", "Joshi", "Rao", "Smith", "Johnson",
		"Williams", "Brown", "Garcia",
	}
	genders       = []string{"male", "female", "other", "unknown"}
	emailDomains  = []string{"example.com", "mail.test", "hospital.test"}
	invoiceStatus = []string{billing.StatusDraft, billing.StatusIssued, billing.StatusPaid, billing.StatusPaid, billing.StatusVoid}
	services      = []string{
		"consultation", "x-ray", "blood panel", "mri scan", "physiotherapy",
		"pharmacy", "ward stay", "surgery", "vaccination",
	}
)

// DataGenerator produces deterministic inputs for a seed.
type DataGenerator struct {
	rng     *rand.Rand
	counter int
}

// NewDataGenerator creates a generator; equal seeds give equal output.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) date(minYear, maxYear int) time.Time {
	year := minYear + g.rng.Intn(maxYear-minYear+1)
	return time.Date(year, time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
}

func (g *DataGenerator) phone() string {
	return fmt.Sprintf("+91-%d%09d", 6+g.rng.Intn(4), g.rng.Intn(1_000_000_000))
}

// Patient returns the next patient input. MRNs are unique per generator.
func (g *DataGenerator) Patient() patient.Input {
	g.counter++
	first, last := g.pick(firstNames), g.pick(lastNames)
	email := fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.counter, g.pick(emailDomains))
	phone := g.phone()
	gender := g.pick(genders)
	dob := g.date(1940, 2020).Format("2006-01-02")
	return patient.Input{
		MRN:         fmt.Sprintf("MRN-%06d", g.counter),
		FirstName:   first,
		LastName:    last,
		Email:       &email,
		Phone:       &phone,
		Gender:      &gender,
		DateOfBirth: &dob,
	}
}

// Invoice returns an invoice for p. seq keeps invoice numbers unique.
func (g *DataGenerator) Invoice(p *patient.Patient, seq int) billing.Input {
	issued := g.date(2023, 2025)
	due := issued.AddDate(0, 0, 30)
	issuedStr, dueStr := issued.Format("2006-01-02"), due.Format("2006-01-02")
	return billing.Input{
		InvoiceNumber: fmt.Sprintf("INV-%d-%05d", issued.Year(), seq),
		PatientID:     p.ID,
		PatientName:   p.FullName,
		Status:        g.pick(invoiceStatus),
		TotalAmount:   float64(100+g.rng.Intn(49900)) + float64(g.rng.Intn(100))/100,
		IssuedAt:      &issuedStr,
		DueDate:       &dueStr,
	}
}

// Settlement returns the balanced debit and credit posting a paid invoice.
func (g *DataGenerator) Settlement(inv *billing.Invoice) [2]ledger.Input {
	at := time.Now().UTC()
	if inv.IssuedAt != nil {
		at = inv.IssuedAt.Add(time.Duration(9+g.rng.Intn(8)) * time.Hour)
	}
	occurred := at.Format(time.RFC3339)
	ref := inv.InvoiceNumber
	svc := g.pick(services)
	debit := fmt.Sprintf("%s payment from %s", svc, inv.PatientName)
	credit := fmt.Sprintf("%s receivable settled", svc)
	return [2]ledger.Input{
		{Account: "cash", EntryType: ledger.Debit, Amount: inv.TotalAmount, Reference: &ref, Description: &debit, OccurredAt: &occurred},
		{Account: "receivables", EntryType: ledger.Credit, Amount: inv.TotalAmount, Reference: &ref, Description: &credit, OccurredAt: &occurred},
	}
}

// Seeder writes generated data through the domain services.
type Seeder struct {
	patients *patient.Service
	invoices *billing.Service
	ledger   *ledger.Service
	logger   zerolog.Logger
}

func NewSeeder(patients *patient.Service, invoices *billing.Service, entries *ledger.Service, logger zerolog.Logger) *Seeder {
	return &Seeder{
		patients: patients,
		invoices: invoices,
		ledger:   entries,
		logger:   logger.With().Str("component", "sandbox").Logger(),
	}
}

// Run seeds cfg.PatientCount patients, their invoices and a settlement pair
// for every paid invoice. It stops at the first failed write.
func (s *Seeder) Run(ctx context.Context, cfg SeedConfig) (*SeedResult, error) {
	start := time.Now()
	if cfg.Seed == 0 {
		cfg.Seed = start.UnixNano()
	}
	g := NewDataGenerator(cfg.Seed)
	res := &SeedResult{Seed: cfg.Seed}

	for i := 0; i < cfg.PatientCount; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		p, err := s.patients.Create(ctx, g.Patient())
		if err != nil {
			return res, fmt.Errorf("seed patient: %w", err)
		}
		res.Patients++

		for j := 0; j < cfg.InvoicesPerPatient; j++ {
			inv, err := s.invoices.CreateInvoice(ctx, g.Invoice(p, res.Invoices+1))
			if err != nil {
				return res, fmt.Errorf("seed invoice: %w", err)
			}
			res.Invoices++
			if inv.Status != billing.StatusPaid {
				continue
			}
			for _, in := range g.Settlement(inv) {
				if _, err := s.ledger.Create(ctx, in); err != nil {
					return res, fmt.Errorf("seed ledger entry: %w", err)
				}
				res.LedgerEntries++
			}
		}
	}

	res.Duration = time.Since(start)
	s.logger.Info().
		Int("patients", res.Patients).
		Int("invoices", res.Invoices).
		Int("ledger_entries", res.LedgerEntries).
		Int64("seed", res.Seed).
		Dur("duration", res.Duration).
		Msg("sandbox seeded")
	return res, nil
}

// SeedHandler exposes the seeder over HTTP in development.
type SeedHandler struct {
	seeder *Seeder
}

func NewSeedHandler(seeder *Seeder) *SeedHandler {
	return &SeedHandler{seeder: seeder}
}

func (h *SeedHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sandbox/seed", h.handleSeed)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	cfg := DefaultSeedConfig()
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&cfg); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid seed configuration: "+err.Error())
		}
	}
	if err := c.Validate(&cfg); err != nil {
		return err
	}
	res, err := h.seeder.Run(c.Request().Context(), cfg)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}
