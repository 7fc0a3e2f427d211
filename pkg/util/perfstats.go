// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package util

import (
	"fmt"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

// PerfStats records the time, allocation and collector activity at a given
// point, such that the cost of some phase (e.g. proving) can be reported once
// it completes.
type PerfStats struct {
	start  time.Time
	alloc  uint64
	cycles uint32
}

// NewPerfStats takes a snapshot of the current time and memory statistics.
func NewPerfStats() *PerfStats {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	return &PerfStats{time.Now(), m.TotalAlloc, m.NumGC}
}

// Log reports (at debug level) the cost of everything since this snapshot was
// taken, prefixed with the name of the phase.
func (p *PerfStats) Log(phase string) {
	var m runtime.MemStats
	//
	runtime.ReadMemStats(&m)
	//
	log.WithFields(log.Fields{
		"time":  time.Since(p.start).Round(time.Millisecond),
		"alloc": megabytes(m.TotalAlloc - p.alloc),
		"heap":  megabytes(m.HeapAlloc),
		"gc":    m.NumGC - p.cycles,
	}).Debugf("%s complete", phase)
}

func megabytes(bytes uint64) string {
	return fmt.Sprintf("%.1fMB", float64(bytes)/(1<<20))
}
