// Package serialization saves and restores updater state (velocity and other
// per-parameter accumulators) so that training can resume where it stopped.
//
// The parameter buffer itself belongs to the training loop and is never
// written here.
//
//	Format Structure:
//	  [4 bytes: Magic "BUPD"]
//	  [4 bytes: Version (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Vector data: little-endian float32, vectors in name order]
//
// The header records the updater kind, its hyperparameters, one entry per
// state vector (name, length, offset, size) and the SHA-256 checksum of the
// data section.
//
// Example usage:
//
//	// Save
//	st := &serialization.State{
//	    Updater: u.Kind().String(),
//	    Hyper:   hp,
//	    Vectors: u.StateDict(),
//	}
//	if err := serialization.SaveState("model.state", st); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Restore
//	st, err := serialization.LoadState("model.state")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := u.LoadStateDict(st.Vectors); err != nil {
//	    log.Fatal(err)
//	}
package serialization
