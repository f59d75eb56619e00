// Package point defines the boolean feature-space value types shared
// by the clustering engine: packed boolean vectors, supervision
// labels, and labeled observations.
//
// All types are immutable values with structural equality; a point
// never changes after construction.
package point
