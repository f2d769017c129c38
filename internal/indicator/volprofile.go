package indicator

import (
	"fmt"
	"math"
	"time"

	"signal-enginev1/internal/model"
)

const (
	vpSegments   = 100  // equal price partitions of the [min,max] typical range
	vpTimeSlots  = 48   // half-hour-of-day buckets for volume dedup
	vpValueShare = 0.70 // value area covers at least this share of total volume
)

// VolumeProfile builds a 100-segment volume-by-price profile over the window.
//
// Volume is accumulated per price segment, but each segment counts a given
// half-hour-of-day at most once (48 slots), so a recurring time of day cannot
// dominate the profile. POC is the segment with the most volume; the value
// area is the contiguous segment range holding ≥70% of total volume, chosen
// by scanning every possible start and keeping the densest qualifying range.
// VAH/VAL are the mean prices of the range's boundary segments.
//
// Cached tuple: "vah,val,poc,pocRatio" with pocRatio = round((vah−val)/poc, 4).
func VolumeProfile(candles []model.Candle, limit int) (string, error) {
	if len(candles) < limit {
		return "", fmt.Errorf("volume profile: window %d too small for limit %d", len(candles), limit)
	}
	window := candles[len(candles)-limit:]

	prices := typicals(window)
	lo, hi := minMax(prices)
	if hi == lo {
		return "", fmt.Errorf("volume profile: flat price range: %w", ErrDegenerate)
	}
	segWidth := (hi - lo) / vpSegments

	var volumes [vpSegments]float64
	var seen [vpSegments][vpTimeSlots]bool
	for i, c := range window {
		seg := int((prices[i] - lo) / segWidth)
		if seg >= vpSegments {
			seg = vpSegments - 1 // max price lands in the last segment
		}
		slot := halfHourSlot(c.Timestamp)
		if seen[seg][slot] {
			continue
		}
		seen[seg][slot] = true
		volumes[seg] += c.Volume
	}

	total := 0.0
	poc := 0
	for seg, v := range volumes {
		total += v
		if v > volumes[poc] {
			poc = seg
		}
	}
	if total == 0 {
		return "", fmt.Errorf("volume profile: zero total volume: %w", ErrDegenerate)
	}

	// Scan every start for the shortest range reaching the value share, and
	// keep the one holding the most volume.
	need := total * vpValueShare
	bestStart, bestEnd, bestVol := -1, -1, 0.0
	for start := 0; start < vpSegments; start++ {
		sum := 0.0
		for end := start; end < vpSegments; end++ {
			sum += volumes[end]
			if sum >= need {
				if sum > bestVol {
					bestStart, bestEnd, bestVol = start, end, sum
				}
				break
			}
		}
	}
	if bestStart < 0 {
		return "", fmt.Errorf("volume profile: no value area: %w", ErrDegenerate)
	}

	segMean := func(seg int) float64 { return lo + (float64(seg)+0.5)*segWidth }
	vah := math.Max(segMean(bestStart), segMean(bestEnd))
	val := math.Min(segMean(bestStart), segMean(bestEnd))
	pocPrice := segMean(poc)
	pocRatio := math.Round((vah-val)/pocPrice*10000) / 10000

	return tuple(fmtF(vah), fmtF(val), fmtF(pocPrice), fmtF(pocRatio)), nil
}

// halfHourSlot maps a millisecond timestamp to its half-hour-of-day bucket.
func halfHourSlot(tsMillis int64) int {
	t := time.UnixMilli(tsMillis).UTC()
	return t.Hour()*2 + t.Minute()/30
}
