package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultSequencePadding = 5

// FallbackSource supplies the most recent reference already issued for a
// prefix, used when the sequence table itself is unavailable.
type FallbackSource interface {
	LatestReference(ctx context.Context, prefix string) (string, error)
}

// SequenceService mints order reference strings from the sequences table.
// The definition row is created on first use when missing; when even that
// fails the service derives a year-prefixed counter from the latest
// reference already on record.
type SequenceService struct {
	pool     *pgxpool.Pool
	fallback FallbackSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewSequenceService returns a SequenceService.
func NewSequenceService(pool *pgxpool.Pool, fallback FallbackSource, logger *slog.Logger) *SequenceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SequenceService{pool: pool, fallback: fallback, logger: logger, now: time.Now}
}

// Register ensures the sequence definition exists. Invoked once at bootstrap
// so the create path never has to register sequences lazily.
func (s *SequenceService) Register(ctx context.Context, code, prefix string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sequences (code, prefix, padding, next_value) VALUES ($1, $2, $3, 1) ON CONFLICT (code) DO NOTHING`,
		code, prefix, defaultSequencePadding)
	if err != nil {
		return fmt.Errorf("shared: register sequence %s: %w", code, err)
	}
	return nil
}

// Next returns the next reference in the series for code.
func (s *SequenceService) Next(ctx context.Context, code, prefix string) (string, error) {
	ref, err := s.next(ctx, code)
	if err == nil {
		return ref, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Self-healing registration, then one retry.
		if regErr := s.Register(ctx, code, prefix); regErr != nil {
			s.logger.Warn("sequence registration failed, using fallback", slog.Any("error", regErr))
			return s.fallbackReference(ctx, prefix)
		}
		if ref, err = s.next(ctx, code); err == nil {
			return ref, nil
		}
	}
	s.logger.Warn("sequence lookup failed, using fallback", slog.String("code", code), slog.Any("error", err))
	return s.fallbackReference(ctx, prefix)
}

func (s *SequenceService) next(ctx context.Context, code string) (string, error) {
	var (
		prefix  string
		padding int
		next    int64
	)
	err := s.pool.QueryRow(ctx,
		`UPDATE sequences SET next_value = next_value + 1 WHERE code = $1 RETURNING prefix, padding, next_value - 1`,
		code).Scan(&prefix, &padding, &next)
	if err != nil {
		return "", err
	}
	return formatReference(prefix, s.now().Year(), padding, next), nil
}

func (s *SequenceService) fallbackReference(ctx context.Context, prefix string) (string, error) {
	year := s.now().Year()
	if s.fallback == nil {
		return formatReference(prefix, year, defaultSequencePadding, 1), nil
	}
	last, err := s.fallback.LatestReference(ctx, prefix)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("shared: sequence fallback: %w", err)
	}
	lastYear, lastNumber, ok := parseReference(prefix, last)
	if !ok || lastYear != year {
		return formatReference(prefix, year, defaultSequencePadding, 1), nil
	}
	return formatReference(prefix, year, defaultSequencePadding, lastNumber+1), nil
}

func formatReference(prefix string, year, padding int, number int64) string {
	return fmt.Sprintf("%s/%d/%0*d", prefix, year, padding, number)
}

func parseReference(prefix, ref string) (year int, number int64, ok bool) {
	if ref == "" {
		return 0, 0, false
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `/(\d{4})/(\d+)$`)
	m := re.FindStringSubmatch(ref)
	if m == nil {
		return 0, 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	number, err = strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return year, number, true
}
