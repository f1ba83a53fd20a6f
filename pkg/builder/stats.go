package builder

import "context"

// Stats summarizes a built index the way rlzs-index-statistics.cpp reports
// on a completed RLZ store: how much of the factor stream is literal
// fallback, how long the average match runs, and how much of the dictionary
// is actually load-bearing.
type Stats struct {
	DictBytes       int
	TotalFactors    int
	LiteralFactors  int
	LiteralRatio    float64
	AverageFactorLen float64
	DictUtilization  float64
}

// Stats builds (or loads) the index and computes its summary statistics.
func (b *Builder) Stats(ctx context.Context) (Stats, error) {
	idx, err := b.BuildOrLoad(ctx)
	if err != nil {
		return Stats{}, err
	}

	used := make([]bool, len(idx.Dict))

	var (
		totalFactors, literalFactors int
		totalDecodedBytes            int
	)

	for _, f := range idx.Reader.AllFactors() {
		totalFactors++

		if f.Literal {
			literalFactors++
			totalDecodedBytes++

			continue
		}

		totalDecodedBytes += f.Len

		for j := f.Offset; j < f.Offset+uint64(f.Len) && int(j) < len(used); j++ {
			used[j] = true
		}
	}

	usedBytes := 0

	for _, u := range used {
		if u {
			usedBytes++
		}
	}

	s := Stats{DictBytes: len(idx.Dict), TotalFactors: totalFactors, LiteralFactors: literalFactors}

	if totalFactors > 0 {
		s.LiteralRatio = float64(literalFactors) / float64(totalFactors)
		s.AverageFactorLen = float64(totalDecodedBytes) / float64(totalFactors)
	}

	if len(idx.Dict) > 0 {
		s.DictUtilization = float64(usedBytes) / float64(len(idx.Dict))
	}

	return s, nil
}
