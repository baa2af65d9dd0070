package record

import "strconv"

const (
	SummaryDeficienciesNoted   = "Deficiencies noted"
	SummaryNoDeficienciesNoted = "No deficiencies noted"
)

// Augment returns a copy of r with the summary fields derived from its findings. A field the
// caller already filled in is left alone.
func Augment(r *Record) *Record {
	out := r.Clone()

	if len(out.Deficiencies) == 0 {
		seq := 0
		for _, f := range out.Findings {
			if !f.IsDeficient() {
				continue
			}
			seq++
			text := f.Observation
			if text == "" {
				text = f.Item
			}
			out.Deficiencies = append(out.Deficiencies, Deficiency{No: strconv.Itoa(seq), Text: text})
		}
	}

	if out.DeficienciesSummary == "" {
		if len(out.Deficiencies) > 0 {
			out.DeficienciesSummary = SummaryDeficienciesNoted
		} else {
			out.DeficienciesSummary = SummaryNoDeficienciesNoted
		}
	}

	if len(out.Observations) == 0 && len(out.Findings) > 0 {
		out.Observations = make([]Observation, 0, len(out.Findings))
		for _, f := range out.Findings {
			out.Observations = append(out.Observations, Observation{
				General:  out.AreaInspected,
				Specific: f.Item,
				System:   f.Observation,
				SU:       f.NormalizedStatus(),
				Remarks:  f.Remarks,
			})
		}
	}

	return out
}
