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
package lex

import "cmp"

// Scanner examines a sequence of items from its start, returning how many it
// consumes.  Zero indicates no match.
type Scanner[T any] func(items []T) uint

// And succeeds only if every given scanner succeeds on the same input,
// consuming as much as the longest of them.
func And[T any](scanners ...Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		var n uint
		//
		for _, scanner := range scanners {
			m := scanner(items)
			//
			if m == 0 {
				return 0
			}
			//
			n = max(n, m)
		}
		//
		return n
	}
}

// Or returns the result of the first given scanner which succeeds.
func Or[T any](scanners ...Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		for _, scanner := range scanners {
			if n := scanner(items); n > 0 {
				return n
			}
		}
		//
		return 0
	}
}

// Unit matches exactly the given items, in order.
func Unit[T comparable](chars ...T) Scanner[T] {
	return func(items []T) uint {
		if len(items) < len(chars) {
			return 0
		}
		//
		for i, c := range chars {
			if items[i] != c {
				return 0
			}
		}
		//
		return uint(len(chars))
	}
}

// Within matches any single item in the (inclusive) range lowest..highest.
func Within[T cmp.Ordered](lowest T, highest T) Scanner[T] {
	return func(items []T) uint {
		if len(items) != 0 && lowest <= items[0] && items[0] <= highest {
			return 1
		}
		//
		return 0
	}
}

// Many matches zero or more consecutive occurrences of a given scanner.
func Many[T any](scanner Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		var index uint
		//
		for index < uint(len(items)) {
			n := scanner(items[index:])
			//
			if n == 0 {
				break
			}
			//
			index += n
		}
		//
		return index
	}
}

// Until matches everything up to (but excluding) the first occurrence of a
// given item, or the end of input.
func Until[T comparable](item T) Scanner[T] {
	return func(items []T) uint {
		var index uint
		//
		for index < uint(len(items)) && items[index] != item {
			index++
		}
		//
		return index
	}
}

// Sequence matches each scanner in turn, each starting where the previous one
// finished.  Only the last scanner may match nothing.
func Sequence[T any](scanners ...Scanner[T]) Scanner[T] {
	return func(items []T) uint {
		var n uint
		//
		for i, scanner := range scanners {
			m := scanner(items[n:])
			//
			if m == 0 && i+1 != len(scanners) {
				return 0
			}
			//
			n += m
		}
		//
		return n
	}
}

// Eof matches the end of input.
func Eof[T any]() Scanner[T] {
	return func(items []T) uint {
		if len(items) == 0 {
			return 1
		}
		//
		return 0
	}
}
