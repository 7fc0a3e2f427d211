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

import "runtime"

// ParExec executes n independent jobs using concurrently executing go-routines.
// Jobs are dispatched in waves of at most batchsize jobs (or one wave per
// available CPU if batchsize is zero).  The first error reported by any job in a wave is returned once that
// wave completes, and no further waves are dispatched.
func ParExec(n uint, batchsize uint, job func(uint) error) error {
	if batchsize == 0 {
		batchsize = uint(runtime.GOMAXPROCS(0))
	}
	// Construct a communication channel for errors.
	ch := make(chan error, batchsize)
	//
	for start := uint(0); start < n; start += batchsize {
		var (
			end = min(start+batchsize, n)
			err error
		)
		// Dispatch!
		for i := start; i < end; i++ {
			go func(i uint) {
				ch <- job(i)
			}(i)
		}
		// Collect up all the results
		for i := start; i < end; i++ {
			if e := <-ch; e != nil && err == nil {
				err = e
			}
		}
		//
		if err != nil {
			return err
		}
	}
	// Done
	return nil
}
