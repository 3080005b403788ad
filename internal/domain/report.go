package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VolumeTotals holds protocol-wide volume aggregates.
type VolumeTotals struct {
	Protocol      string
	TotalVolume   decimal.Decimal // sum of all volumes
	TotalTraders  int64           // all trader rows
	ActiveTraders int64           // rows with strictly positive volume
}

// PercentileBucket is one row of a volume-distribution report: the top
// floor(Threshold/100 * TotalTraders) traders by descending volume.
type PercentileBucket struct {
	Threshold      int             // percentile threshold, 1..100
	TraderCount    int64           // traders in the bucket
	RankRange      string          // inclusive 1-based range, "1-N" or "0"
	BracketVolume  decimal.Decimal // summed volume of the bucket
	VolumeSharePct float64         // BracketVolume / TotalVolume * 100
	TotalVolume    decimal.Decimal // protocol total volume
	TotalTraders   int64           // protocol total trader count
}

// ImportSummary reports the outcome of one import run.
type ImportSummary struct {
	Protocol       string
	Date           string        // dataset date tag, "" when not dated
	Inserted       int64         // rows inserted this run
	Skipped        int64         // pre-checkpoint rows + duplicate collisions
	Invalid        int64         // rows dropped by the transform
	Resumed        bool          // whether a prior checkpoint was honored
	CheckpointRows int64         // final checkpoint position
	Duration       time.Duration // wall time of the run
}
