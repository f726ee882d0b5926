package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// AuditLogEntry is an immutable fact about one action (append-only, read-only after creation).
// Entries form a hash chain: Hash covers the entry content and PrevHash, so editing or
// removing any stored entry breaks every later link.
type AuditLogEntry struct {
	ID         string            `json:"id" bson:"_id"`
	Seq        int64             `json:"seq" bson:"seq"`
	UserID     string            `json:"user_id" bson:"user_id"`
	Username   string            `json:"username" bson:"username"`
	Action     AuditAction       `json:"action" bson:"action"`
	EntityType string            `json:"entity_type" bson:"entity_type"`
	EntityID   string            `json:"entity_id" bson:"entity_id"`
	Details    map[string]string `json:"details" bson:"details"`
	Timestamp  time.Time         `json:"timestamp" bson:"timestamp"`
	PrevHash   string            `json:"prev_hash" bson:"prev_hash"`
	Hash       string            `json:"hash" bson:"hash"`
}

type chainPayload struct {
	Seq        int64             `json:"seq"`
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Username   string            `json:"username"`
	Action     AuditAction       `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Details    map[string]string `json:"details"`
	Timestamp  string            `json:"timestamp"`
	PrevHash   string            `json:"prev_hash"`
}

// ComputeHash returns the hex sha256 of the canonical entry content.
// encoding/json sorts map keys, which keeps Details deterministic.
func (e *AuditLogEntry) ComputeHash() string {
	details := e.Details
	if details == nil {
		details = map[string]string{}
	}
	payload, _ := json.Marshal(chainPayload{
		Seq:        e.Seq,
		ID:         e.ID,
		UserID:     e.UserID,
		Username:   e.Username,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Details:    details,
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		PrevHash:   e.PrevHash,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Seal links the entry after the given chain head.
func (e *AuditLogEntry) Seal(seq int64, prevHash string) {
	e.Seq = seq
	e.PrevHash = prevHash
	e.Hash = e.ComputeHash()
}
