package model

import "time"

// Snapshot is one ingestion event: all players' stats captured from one
// uploaded workbook. Immutable once created.
type Snapshot struct {
	ID       string    `json:"id"`
	Kingdom  string    `json:"kingdom"`
	TakenAt  time.Time `json:"taken_at"`
	Filename string    `json:"filename"`
}

// PlayerSnapshot is one lord's full stat vector at one point in time.
// Counters that can exceed the safe integer range (power, kills, resources)
// are carried as decimal strings and stored as NUMERIC so no precision is
// lost between the workbook and the API.
type PlayerSnapshot struct {
	SnapshotID  string `json:"snapshot_id"`
	LordID      string `json:"lord_id"`
	Name        string `json:"name"`
	AllianceTag string `json:"alliance_tag"`

	Power         string `json:"power"`
	HighestPower  string `json:"highest_power"`
	LegionPower   string `json:"legion_power"`
	TechPower     string `json:"tech_power"`
	BuildingPower string `json:"building_power"`
	HeroPower     string `json:"hero_power"`

	Merits      string `json:"merits"`
	UnitsKilled string `json:"units_killed"`
	UnitsDead   string `json:"units_dead"`
	UnitsHealed string `json:"units_healed"`
	KillsT1     string `json:"kills_t1"`
	KillsT2     string `json:"kills_t2"`
	KillsT3     string `json:"kills_t3"`
	KillsT4     string `json:"kills_t4"`
	KillsT5     string `json:"kills_t5"`

	Victories  string `json:"victories"`
	Defeats    string `json:"defeats"`
	CitySieges string `json:"city_sieges"`
	Scouted    string `json:"scouted"`
	HelpsGiven string `json:"helps_given"`

	Gold      string `json:"gold"`
	GoldSpent string `json:"gold_spent"`
	Wood      string `json:"wood"`
	WoodSpent string `json:"wood_spent"`
	Ore       string `json:"ore"`
	OreSpent  string `json:"ore_spent"`
	Mana      string `json:"mana"`
	ManaSpent string `json:"mana_spent"`
	Gems      string `json:"gems"`
	GemsSpent string `json:"gems_spent"`

	ResourcesGiven      string `json:"resources_given"`
	ResourcesGivenCount string `json:"resources_given_count"`
	ReinforcementsSent  string `json:"reinforcements_sent"`
	ReinforcementsRecv  string `json:"reinforcements_received"`

	CityLevel int    `json:"city_level"`
	Faction   string `json:"faction"`
}
