// File: affinity/cpuset.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPUSet is a platform-neutral affinity mask. Platform files convert it to the
// native representation (unix.CPUSet on Linux).

package affinity

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const wordBits = 64

// CPUSet is a bitset of logical CPU ids. The zero value is an empty set.
type CPUSet struct {
	words []uint64
}

// NewCPUSet returns a set containing the given CPU ids.
func NewCPUSet(cpus ...int) CPUSet {
	var s CPUSet
	for _, c := range cpus {
		s.Set(c)
	}
	return s
}

// Set adds cpu to the set. Negative ids are ignored.
func (s *CPUSet) Set(cpu int) {
	if cpu < 0 {
		return
	}
	w := cpu / wordBits
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << uint(cpu%wordBits)
}

// Clear removes cpu from the set.
func (s *CPUSet) Clear(cpu int) {
	if cpu < 0 || cpu/wordBits >= len(s.words) {
		return
	}
	s.words[cpu/wordBits] &^= 1 << uint(cpu%wordBits)
}

// IsSet reports whether cpu belongs to the set.
func (s CPUSet) IsSet(cpu int) bool {
	if cpu < 0 || cpu/wordBits >= len(s.words) {
		return false
	}
	return s.words[cpu/wordBits]&(1<<uint(cpu%wordBits)) != 0
}

// Count returns the number of CPUs in the set.
func (s CPUSet) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether no CPU is set.
func (s CPUSet) Empty() bool {
	return s.Count() == 0
}

// CPUs returns the set members in ascending order.
func (s CPUSet) CPUs() []int {
	out := make([]int, 0, s.Count())
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*wordBits+b)
			w &^= 1 << uint(b)
		}
	}
	return out
}

// Nth returns the n-th (0-based) CPU of the set in ascending order.
func (s CPUSet) Nth(n int) (int, bool) {
	if n < 0 {
		return 0, false
	}
	for i, w := range s.words {
		c := bits.OnesCount64(w)
		if n >= c {
			n -= c
			continue
		}
		for ; ; n-- {
			b := bits.TrailingZeros64(w)
			if n == 0 {
				return i*wordBits + b, true
			}
			w &^= 1 << uint(b)
		}
	}
	return 0, false
}

// Clone returns an independent copy.
func (s CPUSet) Clone() CPUSet {
	if s.words == nil {
		return CPUSet{}
	}
	w := make([]uint64, len(s.words))
	copy(w, s.words)
	return CPUSet{words: w}
}

// Intersect returns the CPUs present in both sets.
func (s CPUSet) Intersect(o CPUSet) CPUSet {
	n := len(s.words)
	if len(o.words) < n {
		n = len(o.words)
	}
	out := CPUSet{words: make([]uint64, n)}
	for i := 0; i < n; i++ {
		out.words[i] = s.words[i] & o.words[i]
	}
	return out
}

// String renders the set in kernel cpulist form, e.g. "0-3,8,10-11".
func (s CPUSet) String() string {
	cpus := s.CPUs()
	if len(cpus) == 0 {
		return ""
	}
	var b strings.Builder
	start, prev := cpus[0], cpus[0]
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == prev {
			b.WriteString(strconv.Itoa(start))
		} else {
			fmt.Fprintf(&b, "%d-%d", start, prev)
		}
	}
	for _, c := range cpus[1:] {
		if c == prev+1 {
			prev = c
			continue
		}
		flush()
		start, prev = c, c
	}
	flush()
	return b.String()
}

// ParseCPUList parses a kernel cpulist such as "0-3,8,10-11".
func ParseCPUList(list string) (CPUSet, error) {
	var s CPUSet
	list = strings.TrimSpace(list)
	if list == "" {
		return s, nil
	}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(lo)
		if err != nil {
			return CPUSet{}, fmt.Errorf("affinity: bad cpulist %q: %w", list, err)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(hi); err != nil {
				return CPUSet{}, fmt.Errorf("affinity: bad cpulist %q: %w", list, err)
			}
		}
		if end < start {
			return CPUSet{}, fmt.Errorf("affinity: bad range %q", part)
		}
		for c := start; c <= end; c++ {
			s.Set(c)
		}
	}
	return s, nil
}
