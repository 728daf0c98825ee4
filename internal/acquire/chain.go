package acquire

import (
	"context"
	"errors"
	"strings"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
	"github.com/MimeLyc/dualsub-engine/internal/track"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

// ErrNoPayload means no strategy produced any subtitle data.
var ErrNoPayload = errors.New("no strategy produced subtitle data")

// ErrTrackEmpty means a payload was retrieved but parsed to zero lines,
// a distinct failure from getting nothing at all.
var ErrTrackEmpty = errors.New("subtitle track returned an empty or unparseable payload")

// Strategy is one way of obtaining raw subtitle data for a resolved track.
// A nil/empty payload or an error both mean "fall through to the next
// strategy".
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, tr track.Track) ([]byte, error)
}

// Chain tries strategies in priority order until one yields a payload that
// parses to at least one line. Individual strategy faults are swallowed and
// logged; only exhaustion of the whole chain surfaces as an error.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Acquire resolves raw subtitle data for the track and parses it. Each
// retrieved payload goes through content-sniffing parsing (segment-event
// first, XML fallback); a strategy whose payload parses to zero lines does
// not stop later strategies from trying.
func (c *Chain) Acquire(ctx context.Context, tr track.Track) ([]subtitle.Line, error) {
	sawPayload := false

	for _, strategy := range c.strategies {
		payload, err := strategy.Fetch(ctx, tr)
		if err != nil {
			log.Info("acquisition strategy %s failed for %s: %v", strategy.Name(), tr.Label(), err)
			continue
		}
		if len(strings.TrimSpace(string(payload))) == 0 {
			log.Info("acquisition strategy %s returned no data for %s", strategy.Name(), tr.Label())
			continue
		}
		sawPayload = true

		lines, err := subtitle.Parse(payload)
		if err != nil || len(lines) == 0 {
			log.Warn("acquisition strategy %s payload parsed to zero lines for %s", strategy.Name(), tr.Label())
			continue
		}

		log.Info("acquired %d subtitle lines for %s via %s", len(lines), tr.Label(), strategy.Name())
		return lines, nil
	}

	if sawPayload {
		return nil, ErrTrackEmpty
	}
	return nil, ErrNoPayload
}

// jsonVariantURL appends the JSON-format parameter to a track URL.
func jsonVariantURL(baseURL string) string {
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + "fmt=json3"
}
