// internal/cluster/cluster.go
package cluster

import (
	"sort"

	"github.com/fieldbus-io/modbus-coordinator/internal/register"
)

// Batch is one contiguous address range read in a single transaction.
// Invariants: every member lies fully inside [Start, Start+Words), all
// members share Bank, and Words never exceeds Limits.MaxTransactionWords.
type Batch struct {
	Bank    register.Bank
	Start   uint16
	Words   uint16
	Members []register.Register
}

// End returns the first address past the batch.
func (b Batch) End() uint16 {
	return b.Start + b.Words
}

// Limits bounds batch construction.
type Limits struct {
	// MaxTransactionWords is the protocol ceiling on one read (125 for
	// Modbus register reads).
	MaxTransactionWords uint16
	// MaxGap is the largest run of unused words two registers may be
	// separated by and still share a batch. The hole is read and thrown
	// away; a larger gap always forces a split.
	MaxGap uint16
}

// Build groups registers into the minimum number of batches per bank,
// subject to lim. Pure: the input slice is not modified.
//
// Greedy interval merge: sorted by address (narrower first on ties), a
// candidate window extends while the next register starts within MaxGap of
// the window end and the extended window still fits MaxTransactionWords.
func Build(regs []register.Register, lim Limits) []Batch {
	var out []Batch
	for _, bank := range []register.Bank{register.Input, register.Holding} {
		var group []register.Register
		for _, r := range regs {
			if r.Bank == bank {
				group = append(group, r)
			}
		}
		out = append(out, buildBank(bank, group, lim)...)
	}
	return out
}

func buildBank(bank register.Bank, group []register.Register, lim Limits) []Batch {
	if len(group) == 0 {
		return nil
	}

	sorted := make([]register.Register, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Address != sorted[j].Address {
			return sorted[i].Address < sorted[j].Address
		}
		return sorted[i].Words < sorted[j].Words
	})

	// Window arithmetic in int: overlapping members make addr-end negative,
	// which uint16 would wrap.
	var batches []Batch
	start := int(sorted[0].Address)
	end := start + int(sorted[0].Words)
	members := []register.Register{sorted[0]}

	for _, r := range sorted[1:] {
		addr := int(r.Address)
		candidateEnd := end
		if e := addr + int(r.Words); e > candidateEnd {
			candidateEnd = e
		}

		if addr-end <= int(lim.MaxGap) && candidateEnd-start <= int(lim.MaxTransactionWords) {
			end = candidateEnd
			members = append(members, r)
			continue
		}

		batches = append(batches, Batch{
			Bank:    bank,
			Start:   uint16(start),
			Words:   uint16(end - start),
			Members: members,
		})
		start = addr
		end = addr + int(r.Words)
		members = []register.Register{r}
	}

	batches = append(batches, Batch{
		Bank:    bank,
		Start:   uint16(start),
		Words:   uint16(end - start),
		Members: members,
	})
	return batches
}
