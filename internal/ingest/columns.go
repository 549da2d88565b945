package ingest

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/wardenlabs/realm-tracker/internal/model"
)

// Workbook column layout. The export tool has kept this ordering stable
// across game versions; SkipRows in Options handles the header row.
const (
	colLordID = iota
	colName
	colAllianceTag
	colPower
	colHighestPower
	colLegionPower
	colTechPower
	colBuildingPower
	colHeroPower
	colMerits
	colUnitsKilled
	colUnitsDead
	colUnitsHealed
	colKillsT1
	colKillsT2
	colKillsT3
	colKillsT4
	colKillsT5
	colVictories
	colDefeats
	colCitySieges
	colScouted
	colHelpsGiven
	colGold
	colGoldSpent
	colWood
	colWoodSpent
	colOre
	colOreSpent
	colMana
	colManaSpent
	colGems
	colGemsSpent
	colResourcesGiven
	colResourcesGivenCount
	colReinforcementsSent
	colReinforcementsReceived
	colCityLevel
	colFaction

	columnCount
)

// rowToPlayerSnapshot maps one workbook row onto a PlayerSnapshot. Short
// rows are tolerated; missing counters default to zero. The caller is
// responsible for rejecting rows with an empty lord ID.
func rowToPlayerSnapshot(row []string) *model.PlayerSnapshot {
	return &model.PlayerSnapshot{
		LordID:      cell(row, colLordID),
		Name:        cell(row, colName),
		AllianceTag: cell(row, colAllianceTag),

		Power:         parseAmount(cell(row, colPower)),
		HighestPower:  parseAmount(cell(row, colHighestPower)),
		LegionPower:   parseAmount(cell(row, colLegionPower)),
		TechPower:     parseAmount(cell(row, colTechPower)),
		BuildingPower: parseAmount(cell(row, colBuildingPower)),
		HeroPower:     parseAmount(cell(row, colHeroPower)),

		Merits:      parseAmount(cell(row, colMerits)),
		UnitsKilled: parseAmount(cell(row, colUnitsKilled)),
		UnitsDead:   parseAmount(cell(row, colUnitsDead)),
		UnitsHealed: parseAmount(cell(row, colUnitsHealed)),
		KillsT1:     parseAmount(cell(row, colKillsT1)),
		KillsT2:     parseAmount(cell(row, colKillsT2)),
		KillsT3:     parseAmount(cell(row, colKillsT3)),
		KillsT4:     parseAmount(cell(row, colKillsT4)),
		KillsT5:     parseAmount(cell(row, colKillsT5)),

		Victories:  parseAmount(cell(row, colVictories)),
		Defeats:    parseAmount(cell(row, colDefeats)),
		CitySieges: parseAmount(cell(row, colCitySieges)),
		Scouted:    parseAmount(cell(row, colScouted)),
		HelpsGiven: parseAmount(cell(row, colHelpsGiven)),

		Gold:      parseAmount(cell(row, colGold)),
		GoldSpent: parseAmount(cell(row, colGoldSpent)),
		Wood:      parseAmount(cell(row, colWood)),
		WoodSpent: parseAmount(cell(row, colWoodSpent)),
		Ore:       parseAmount(cell(row, colOre)),
		OreSpent:  parseAmount(cell(row, colOreSpent)),
		Mana:      parseAmount(cell(row, colMana)),
		ManaSpent: parseAmount(cell(row, colManaSpent)),
		Gems:      parseAmount(cell(row, colGems)),
		GemsSpent: parseAmount(cell(row, colGemsSpent)),

		ResourcesGiven:      parseAmount(cell(row, colResourcesGiven)),
		ResourcesGivenCount: parseAmount(cell(row, colResourcesGivenCount)),
		ReinforcementsSent:  parseAmount(cell(row, colReinforcementsSent)),
		ReinforcementsRecv:  parseAmount(cell(row, colReinforcementsReceived)),

		CityLevel: parseIntOr(cell(row, colCityLevel), 0),
		Faction:   cell(row, colFaction),
	}
}

// snapshotColumns is the COPY column order for tracker.player_snapshots.
var snapshotColumns = []string{
	"snapshot_id", "lord_id", "name", "alliance_tag",
	"power", "highest_power", "legion_power", "tech_power", "building_power", "hero_power",
	"merits", "units_killed", "units_dead", "units_healed",
	"kills_t1", "kills_t2", "kills_t3", "kills_t4", "kills_t5",
	"victories", "defeats", "city_sieges", "scouted", "helps_given",
	"gold", "gold_spent", "wood", "wood_spent", "ore", "ore_spent",
	"mana", "mana_spent", "gems", "gems_spent",
	"resources_given", "resources_given_count",
	"reinforcements_sent", "reinforcements_received",
	"city_level", "faction",
}

// snapshotValues flattens a PlayerSnapshot into COPY values matching
// snapshotColumns. Counters go through pgtype.Numeric because binary COPY
// cannot encode plain strings into NUMERIC columns.
func snapshotValues(snapshotID string, ps *model.PlayerSnapshot) []any {
	n := numeric
	return []any{
		snapshotID, ps.LordID, ps.Name, ps.AllianceTag,
		n(ps.Power), n(ps.HighestPower), n(ps.LegionPower), n(ps.TechPower), n(ps.BuildingPower), n(ps.HeroPower),
		n(ps.Merits), n(ps.UnitsKilled), n(ps.UnitsDead), n(ps.UnitsHealed),
		n(ps.KillsT1), n(ps.KillsT2), n(ps.KillsT3), n(ps.KillsT4), n(ps.KillsT5),
		n(ps.Victories), n(ps.Defeats), n(ps.CitySieges), n(ps.Scouted), n(ps.HelpsGiven),
		n(ps.Gold), n(ps.GoldSpent), n(ps.Wood), n(ps.WoodSpent), n(ps.Ore), n(ps.OreSpent),
		n(ps.Mana), n(ps.ManaSpent), n(ps.Gems), n(ps.GemsSpent),
		n(ps.ResourcesGiven), n(ps.ResourcesGivenCount),
		n(ps.ReinforcementsSent), n(ps.ReinforcementsRecv),
		ps.CityLevel, ps.Faction,
	}
}

// numeric parses a decimal string already normalized by parseAmount.
func numeric(s string) pgtype.Numeric {
	var v pgtype.Numeric
	if err := v.Scan(s); err != nil {
		_ = v.Scan("0")
	}
	return v
}
