// Package sckm provides a semi-supervised constrained clustering engine
// over fixed-dimension boolean feature vectors.
//
// SCKM groups items (for example software packages mapped to boolean
// feature vectors) into clusters while honoring sparse label hints:
// points marked malware and points marked accept are kept out of each
// other's clusters whenever the data permits. Training is a constrained
// k-modes relocation over Hamming distance, bounded by a caller-chosen
// iteration budget eta.
//
// # Quick Start
//
//	data := []point.Labeled{
//		point.NewLabeled([]bool{false, false, false}, point.LabelAccept),
//		point.NewLabeled([]bool{false, false, true}, point.LabelAccept),
//		point.NewLabeled([]bool{true, true, false}, point.LabelMalware),
//		point.NewLabeled([]bool{true, true, true}, point.LabelMalware),
//	}
//
//	m, _ := sckm.New(data)
//	defer m.Close()
//
//	_ = m.Train(ctx, 5)
//
//	verdict, _ := m.SameCluster(ctx, []bool{false, false, false}, []bool{false, false, true})
//	// verdict == sckm.ConnectivityLinked
//
// # Lifecycle
//
// A model moves through a tri-state lifecycle: ready (fresh dataset,
// accepts Train), pending (a training run or data replacement is in
// flight), and done (centers frozen, queries served). UpdateData
// replaces the dataset with a rebuild equivalent to fresh construction
// and resets the lifecycle to ready; it waits, bounded by the context,
// for an in-flight training run to finish.
//
// # Snapshots
//
// A non-pending model can be frozen to a compact binary snapshot and
// restored later:
//
//	_ = m.SaveToFile("model.sckm")
//	m2, _ := sckm.NewFromFile("model.sckm")
//
// Snapshots carry the dataset, labels, assignment, and centers, so a
// restored model answers queries (when saved in the done state) and
// accepts retraining. The registry package layers named models and
// blob-store publishing on top.
package sckm
