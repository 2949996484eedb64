package mockserver

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/terrawatch/terrawatch/internal/common"
)

// synthesize derives stable pseudo statistics from the analysis inputs.
// Equal inputs always give equal results; longer spans give larger changes.
func synthesize(seed string, beforeYear, afterYear int, imageBase string) *common.AnalysisResult {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%d|%d", seed, beforeYear, afterYear)
	sum := h.Sum64()

	span := float64(afterYear - beforeYear)
	if span < 1 {
		span = 1
	}
	scale := math.Min(span/10, 2)

	part := func(shift uint, max float64) float64 {
		frac := float64((sum>>shift)&0xffff) / 0xffff
		return round2(frac * max * scale)
	}

	percentages := common.ChangePercentages{
		common.ClassUrbanization:    part(0, 20),
		common.ClassDeforestation:   part(16, 12),
		common.ClassWaterBodyChange: part(32, 5),
	}

	mostAffected := common.ClassUrbanization
	for _, class := range common.KnownClasses {
		if percentages[class] > percentages[mostAffected] {
			mostAffected = class
		}
	}

	total := 0.0
	for _, v := range percentages {
		total += v
	}

	transitions := []common.ClassTransition{
		{From: "vegetation", To: "urban", Percentage: round2(percentages[common.ClassUrbanization] * 0.6)},
		{From: "forest", To: "bare_soil", Percentage: round2(percentages[common.ClassDeforestation] * 0.7)},
		{From: "water", To: "land", Percentage: round2(percentages[common.ClassWaterBodyChange] * 0.8)},
	}

	name := fmt.Sprintf("%x", sum)
	return &common.AnalysisResult{
		ChangePercentages: percentages,
		CriticalChanges: &common.CriticalChanges{
			TotalPercentage:   round2(total * 0.35),
			MostAffectedClass: mostAffected,
			Transitions:       transitions,
		},
		VisualizationURL: fmt.Sprintf("%s/%s_vis.jpg", imageBase, name),
		ChangeMapURL:     fmt.Sprintf("%s/%s_change_map.jpg", imageBase, name),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
