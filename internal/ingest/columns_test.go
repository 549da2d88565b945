package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullRow() []string {
	row := make([]string, columnCount)
	row[colLordID] = "1001"
	row[colName] = "Alice"
	row[colAllianceTag] = "WRD"
	row[colPower] = "15,000,000"
	row[colHighestPower] = "16000000"
	row[colMerits] = "250000"
	row[colKillsT5] = "1200"
	row[colUnitsKilled] = "3400000"
	row[colGold] = "987654321"
	row[colCityLevel] = "30"
	row[colFaction] = "wilderness"
	return row
}

func TestRowToPlayerSnapshot(t *testing.T) {
	ps := rowToPlayerSnapshot(fullRow())

	assert.Equal(t, "1001", ps.LordID)
	assert.Equal(t, "Alice", ps.Name)
	assert.Equal(t, "WRD", ps.AllianceTag)
	assert.Equal(t, "15000000", ps.Power)
	assert.Equal(t, "16000000", ps.HighestPower)
	assert.Equal(t, "250000", ps.Merits)
	assert.Equal(t, "1200", ps.KillsT5)
	assert.Equal(t, "3400000", ps.UnitsKilled)
	assert.Equal(t, "987654321", ps.Gold)
	assert.Equal(t, 30, ps.CityLevel)
	assert.Equal(t, "wilderness", ps.Faction)

	// Untouched counters default to zero, not empty strings.
	assert.Equal(t, "0", ps.Wood)
	assert.Equal(t, "0", ps.ReinforcementsRecv)
}

func TestRowToPlayerSnapshot_ShortRow(t *testing.T) {
	ps := rowToPlayerSnapshot([]string{"1002", "Bob"})

	assert.Equal(t, "1002", ps.LordID)
	assert.Equal(t, "Bob", ps.Name)
	assert.Equal(t, "", ps.AllianceTag)
	assert.Equal(t, "0", ps.Power)
	assert.Equal(t, 0, ps.CityLevel)
}

func TestSnapshotValues_MatchesColumns(t *testing.T) {
	ps := rowToPlayerSnapshot(fullRow())
	vals := snapshotValues("snap-1", ps)

	assert.Len(t, vals, len(snapshotColumns))
	assert.Equal(t, "snap-1", vals[0])
	assert.Equal(t, "1001", vals[1])
}
