package diagnosis

import "strings"

type noteTemplate struct {
	header         []string
	recommendation string
}

var noteTemplates = [5]noteTemplate{
	{
		header: []string{
			"✓ Movement within normal parameters",
			"✓ No signs of bradykinesia",
			"✓ Consistent rhythm and stable amplitude",
		},
		recommendation: "→ Recommendation: Routine follow-up",
	},
	{
		header:         []string{"⚠️ Early signs of motor impairment"},
		recommendation: "→ Recommendation: Periodic monitoring",
	},
	{
		header:         []string{"⚠️ Moderate bradykinesia detected"},
		recommendation: "→ Recommendation: Complete neurological evaluation",
	},
	{
		header:         []string{"🔴 Marked bradykinesia with functional impairment"},
		recommendation: "→ Recommendation: Urgent therapeutic intervention",
	},
	{
		header: []string{
			"🔴 Severe motor impairment",
			"• Movement capacity extremely limited",
		},
		recommendation: "→ Recommendation: Immediate treatment adjustment",
	},
}

// featureNotes lists the bullet text per feature, in report order.
var featureNotes = []struct {
	name string
	text string
}{
	{FeatureDecay, "Progressive amplitude reduction"},
	{FeatureRatio, "Fatigue in second half"},
	{FeatureMagnitude, "Reduced movement amplitude"},
	{FeatureRhythm, "Rhythm irregularity"},
	{FeatureRepTime, "Slowed repetitions"},
	{FeatureHesitations, "Hesitations / freezing episodes"},
}

func clinicalNotes(score int, bands map[string]string, noMovement bool) string {
	tpl := noteTemplates[score]
	lines := append([]string{}, tpl.header...)

	if noMovement {
		lines = append(lines, "• No repetitions detected: verify the exercise was performed before interpreting the score")
	}
	for _, fn := range featureNotes {
		if band := bands[fn.name]; band != BandNormal {
			lines = append(lines, "• "+fn.text+": "+band)
		}
	}
	lines = append(lines, tpl.recommendation)
	return strings.Join(lines, "\n")
}
