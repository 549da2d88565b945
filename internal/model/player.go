// Package model defines the persisted entities of the realm tracker.
package model

import "time"

// Player is the identity anchor for a tracked lord. It is created on first
// sighting and never deleted; snapshots and change history hang off it.
type Player struct {
	LordID    string    `json:"lord_id"`
	Name      string    `json:"name"`
	LeftRealm bool      `json:"left_realm"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// NameChange records a detected display-name transition between two
// consecutive snapshots of the same lord. Append-only.
type NameChange struct {
	ID         int64     `json:"id"`
	LordID     string    `json:"lord_id"`
	OldName    string    `json:"old_name"`
	NewName    string    `json:"new_name"`
	DetectedAt time.Time `json:"detected_at"`
}

// AllianceChange records a detected alliance-tag transition. Append-only.
// An empty tag means the lord was allianceless on that side of the change.
type AllianceChange struct {
	ID         int64     `json:"id"`
	LordID     string    `json:"lord_id"`
	OldTag     string    `json:"old_tag"`
	NewTag     string    `json:"new_tag"`
	DetectedAt time.Time `json:"detected_at"`
}
