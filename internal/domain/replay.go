package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
	"ndfkit.dev/pkg/ndfkit/internal/ndf"
)

// Replayer applies profile records to a forest. Each record is replayed as
// a SET of its recorded new value, so a drifted value is overwritten rather
// than adjusted again.
type Replayer interface {
	Replay(ctx context.Context, profile m.Profile, f *m.Forest) (m.ReplayReport, error)
}

type replayer struct {
	Mutator
}

// NewReplayer creates a Replayer that applies records through mutator.
func NewReplayer(mutator Mutator) Replayer {
	return &replayer{Mutator: mutator}
}

func (rp *replayer) Replay(ctx context.Context, profile m.Profile, f *m.Forest) (m.ReplayReport, error) {
	var report m.ReplayReport

	for _, r := range profile.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		applied, err := rp.replayRecord(ctx, r, f)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}

			slog.Warn("skipping profile record", "profile", profile.Name, "unit", r.UnitName, "path", r.PropertyPath, "error", err)
			report.Skipped = append(report.Skipped, m.SkippedRecord{Record: r, Reason: err.Error()})

			continue
		}

		report.Applied = append(report.Applied, applied...)
	}

	slog.Info("replayed profile", "profile", profile.Name, "applied", len(report.Applied), "skipped", len(report.Skipped))

	return report, nil
}

func (rp *replayer) replayRecord(ctx context.Context, r m.ModificationRecord, f *m.Forest) ([]m.ModificationRecord, error) {
	value, err := recordedValue(r)
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("replayed %s %s", r.ModType, r.ID)

	return rp.Replace(ctx, f, r.UnitName, r.PropertyPath, value, details)
}

// recordedValue parses the new value text of r and checks it has the
// recorded kind. Raw expressions are taken verbatim.
func recordedValue(r m.ModificationRecord) (m.Value, error) {
	if r.NewType == m.KindRawExpr {
		text := strings.TrimSpace(r.NewValueText)
		if text == "" {
			return nil, fmt.Errorf("recorded value: %w", ndf.ErrEmptyValue)
		}

		return &m.RawExpr{Text: text}, nil
	}

	value, err := ndf.ParseValue(r.NewValueText)
	if err != nil {
		return nil, fmt.Errorf("recorded value %q: %w", r.NewValueText, err)
	}

	if value.Kind() != r.NewType {
		return nil, fmt.Errorf("recorded value %q is a %s, expected %s", r.NewValueText, value.Kind(), r.NewType)
	}

	return value, nil
}
