// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package arena

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrency-heavy tests, which trigger false
// positives because the race detector cannot observe synchronization
// established purely through atomix's acquire/release ordering.
const RaceEnabled = true
