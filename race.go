// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package erl

// RaceEnabled is true when the race detector is active.
// Stress tests scale their iteration counts down under the detector.
const RaceEnabled = true
