// Package series holds the time series value type consumed and
// produced by formula evaluation, plus the alignment and fill
// algebra shared by every multi-series operator.
//
// A Series is an ordered mapping from timestamp to float64 value:
// timestamps strictly increase and carry no required uniform
// frequency. Timezone-awareness is part of a series' identity;
// naive and aware series never combine or interconvert silently.
package series
