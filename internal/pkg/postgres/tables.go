package postgres

const (
	// TableUnits is the name of the units registry table.
	TableUnits = "units"
)
