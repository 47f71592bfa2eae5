package domain

const (
	IndicatorUnderweight     = "baixo_peso"
	IndicatorEutrophic       = "eutrofico"
	IndicatorOverweight      = "sobrepeso"
	IndicatorObesityGrade1   = "obesidade_G_1"
	IndicatorObesityGrade2   = "obesidade_G_2"
	IndicatorObesityGrade3   = "obesidade_G_3"
	IndicatorSevereThinness  = "magreza_acentuada"
	IndicatorThinness        = "magreza"
	IndicatorObesity         = "obesidade"
	IndicatorSevereObesity   = "obesidade_grave"
	IndicatorExcessWeight    = "excesso_peso"
	IndicatorComputedObesity = "obesidade_calc"

	// IndicatorTotal is the pseudo indicator backed by the respondent total.
	IndicatorTotal = "Total"
)

var (
	adultIndicators = []string{
		IndicatorUnderweight,
		IndicatorEutrophic,
		IndicatorOverweight,
		IndicatorObesityGrade1,
		IndicatorObesityGrade2,
		IndicatorObesityGrade3,
	}
	adolescentIndicators = []string{
		IndicatorSevereThinness,
		IndicatorThinness,
		IndicatorObesity,
		IndicatorSevereObesity,
	}
	syntheticComponents = map[string][]string{
		IndicatorExcessWeight: {
			IndicatorOverweight,
			IndicatorObesityGrade1,
			IndicatorObesityGrade2,
			IndicatorObesityGrade3,
		},
		IndicatorComputedObesity: {
			IndicatorObesityGrade1,
			IndicatorObesityGrade2,
			IndicatorObesityGrade3,
		},
	}
)

// IndicatorColumns returns the concrete columns recorded for a phase.
func IndicatorColumns(phase LifePhase) []string {
	switch phase {
	case PhaseAdult:
		return append([]string(nil), adultIndicators...)
	case PhaseAdolescent:
		return append([]string(nil), adolescentIndicators...)
	}
	return nil
}

// AllIndicatorColumns returns every concrete indicator column, adult first.
func AllIndicatorColumns() []string {
	out := make([]string, 0, len(adultIndicators)+len(adolescentIndicators))
	out = append(out, adultIndicators...)
	return append(out, adolescentIndicators...)
}

// IsSynthetic reports whether key is computed from other columns.
func IsSynthetic(key string) bool {
	_, ok := syntheticComponents[key]
	return ok
}

// Components expands an indicator key into the concrete columns summed for it.
func Components(key string) []string {
	if parts, ok := syntheticComponents[key]; ok {
		return append([]string(nil), parts...)
	}
	return []string{key}
}

// IndicatorValid reports whether key can be selected for phase.
// Synthetic keys are adult-only; Total is valid for any phase.
func IndicatorValid(phase LifePhase, key string) bool {
	if key == IndicatorTotal {
		return true
	}
	if IsSynthetic(key) {
		return phase == PhaseAdult
	}
	for _, k := range IndicatorColumns(phase) {
		if k == key {
			return true
		}
	}
	return false
}
