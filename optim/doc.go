// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides per-coordinate update rules for training models.
//
// # Overview
//
// This package contains:
//   - Nesterov: Nesterov accelerated gradient
//   - Momentum: classical momentum
//   - SGD, AdaGrad, RMSProp: plain and adaptive gradient descent
//   - FTRL: FTRL-proximal with fused L1/L2 regularization
//   - Updater interface shared by all rules
//
// # Basic Usage
//
//	import "github.com/born-ml/updater/optim"
//
//	func train(params []float32, grad func([]float32) []float32) error {
//	    u := optim.NewNesterov()
//	    hp := optim.DefaultHyperParameters()
//	    hp.NumParam = len(params)
//	    if err := u.Initialize(hp); err != nil {
//	        return err
//	    }
//
//	    for range 100 {
//	        g := grad(params)
//	        body := len(g) - len(g)%optim.LaneWidth
//	        if body > 0 {
//	            if err := u.BatchUpdate(g[:body], 0, params); err != nil {
//	                return err
//	            }
//	        }
//	        for id := body; id < len(g); id++ {
//	            u.Update(id, g[id], params)
//	        }
//	    }
//	    return nil
//	}
//
// # Update paths
//
// Update applies one coordinate and performs no checks. BatchUpdate applies
// a contiguous range whose length is a multiple of LaneWidth and rejects
// anything else with an error before touching state.
//
// # Regularization
//
// The caller adds the L1/L2 penalty gradient selected by ReguType before
// calling the updater. FTRL is the exception: it applies its lambdas inside
// its own recurrence.
//
// # Concurrency
//
// Updaters hold no locks. Calls from several goroutines are safe only when
// they touch disjoint coordinate ids.
package optim
