package ptbxl

// Ages above AgeThreshold are stored shifted by AgeOffset in PTB-XL to
// anonymize very old patients.
const (
	AgeThreshold = 89.0
	AgeOffset    = 300.0
)

// ScaleAge returns age unchanged up to AgeThreshold and age - AgeOffset
// above it, so 90 becomes -210. NaN is returned unchanged.
func ScaleAge(age float64) float64 {
	if age > AgeThreshold {
		return age - AgeOffset
	}
	return age
}

// ScaleAges returns a copy of records with ScaleAge applied to every age
func ScaleAges(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
		out[i].Age = ScaleAge(r.Age)
	}
	return out
}
