package compression

// Compression level bounds. Levels outside the range fall back to
// DefaultLevel, matching the behavior callers have come to rely on.
const (
	MinLevel     = 0
	MaxLevel     = 4
	DefaultLevel = 3
)

// tiers maps each compression level to its settings. The table is fixed:
// a higher level never increases quality, DPI or maximum dimension.
var tiers = [MaxLevel + 1]Tier{
	{Quality: 95, DPI: 300, MaxDimension: 4000}, // minimal
	{Quality: 90, DPI: 250, MaxDimension: 3000}, // light
	{Quality: 85, DPI: 200, MaxDimension: 2500}, // medium
	{Quality: 75, DPI: 150, MaxDimension: 2000}, // high
	{Quality: 60, DPI: 100, MaxDimension: 1500}, // maximum
}

// TierForLevel returns the settings for a compression level. Out-of-range
// levels map to DefaultLevel rather than failing.
func TierForLevel(level int) Tier {
	if level < MinLevel || level > MaxLevel {
		return tiers[DefaultLevel]
	}
	return tiers[level]
}
