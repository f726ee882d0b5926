package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qcportal/internal/qc/model"
)

// VerifyReport is the outcome of walking the audit chain
type VerifyReport struct {
	EntriesChecked int64     `json:"entries_checked"`
	Valid          bool      `json:"valid"`
	HeadSeq        int64     `json:"head_seq"`
	HeadHash       string    `json:"head_hash,omitempty"`
	BrokenSeq      int64     `json:"broken_seq,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	VerifiedAt     time.Time `json:"verified_at"`
}

type brokenLink struct {
	seq    int64
	reason string
}

func (b *brokenLink) Error() string {
	return fmt.Sprintf("seq %d: %s", b.seq, b.reason)
}

// Verify walks the chain in insertion order and reports the first broken link:
// a gap or repeat in seq, a prev_hash that does not match the predecessor, or
// content that no longer matches its own hash.
func (l *Logger) Verify(ctx context.Context) (*VerifyReport, error) {
	report := &VerifyReport{Valid: true}

	var (
		prevSeq  int64
		prevHash string
	)
	err := l.repo.IterateAudit(ctx, func(e *model.AuditLogEntry) error {
		report.EntriesChecked++
		switch {
		case e.Seq != prevSeq+1:
			return &brokenLink{seq: e.Seq, reason: fmt.Sprintf("expected seq %d", prevSeq+1)}
		case e.PrevHash != prevHash:
			return &brokenLink{seq: e.Seq, reason: "prev_hash does not match the preceding entry"}
		case e.Hash != e.ComputeHash():
			return &brokenLink{seq: e.Seq, reason: "entry content does not match its hash"}
		}
		prevSeq, prevHash = e.Seq, e.Hash
		return nil
	})

	var broken *brokenLink
	switch {
	case errors.As(err, &broken):
		report.Valid = false
		report.BrokenSeq = broken.seq
		report.Reason = broken.reason
	case err != nil:
		return nil, err
	}

	report.HeadSeq = prevSeq
	report.HeadHash = prevHash
	report.VerifiedAt = l.now().UTC()
	return report, nil
}
