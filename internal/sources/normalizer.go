package sources

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

var (
	// ErrUnknownSource is returned for a message from a source with no normalizer
	ErrUnknownSource = errors.New("unknown source")
	// ErrUnsupportedKind is returned for a payload kind a normalizer does not handle
	ErrUnsupportedKind = errors.New("unsupported payload kind")
)

// Normalizer turns one source-native payload into a SourceBatch
type Normalizer interface {
	Source() string
	Normalize(msg *models.SourceMessage) (*models.SourceBatch, error)
}

// Registry dispatches messages to the normalizer of their source
type Registry struct {
	normalizers map[string]Normalizer
}

// NewRegistry creates a registry over the given normalizers
func NewRegistry(normalizers ...Normalizer) *Registry {
	r := &Registry{normalizers: make(map[string]Normalizer, len(normalizers))}
	for _, n := range normalizers {
		r.normalizers[n.Source()] = n
	}
	return r
}

// Normalize decodes msg with its source's normalizer
func (r *Registry) Normalize(msg *models.SourceMessage) (*models.SourceBatch, error) {
	n, ok := r.normalizers[strings.ToLower(msg.Source)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, msg.Source)
	}

	batch, err := n.Normalize(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s payload: %w", n.Source(), err)
	}
	return batch, nil
}

func newBatch(msg *models.SourceMessage, source string, role models.SourceRole) *models.SourceBatch {
	fetchedAt := msg.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	return &models.SourceBatch{
		Source:    source,
		Role:      role,
		BatchID:   msg.BatchID,
		FetchedAt: fetchedAt.UTC(),
	}
}

var one = decimal.NewFromInt(1)

// probabilityToOdds converts a probability strictly inside (0, 1) to decimal odds
func probabilityToOdds(p decimal.Decimal) (float64, bool) {
	if !p.IsPositive() || p.GreaterThanOrEqual(one) {
		return 0, false
	}
	return one.Div(p).InexactFloat64(), true
}

// parseTimestamp accepts RFC 3339 and the space-separated "+00" form some feeds emit
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if strings.HasSuffix(s, "+00") {
		s += ":00"
	}

	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
