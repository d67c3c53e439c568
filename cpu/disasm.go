package cpu

import (
	"fmt"
	"slices"
)

// Disassemble decodes machine code into items.
//
// Words that do not decode are emitted as raw Word items. An EXTI prefixed
// instruction that would not encode back to the same words is decoded as
// separate instructions, so that reassembly reproduces the input exactly.
// If labels is set, PC-relative operands targeting an instruction inside
// the code are replaced by references to generated "L<addr>" labels.
func (table *Table) Disassemble(words []uint16, labels bool) (items Items) {
	addrOf := []int{0}           // Address of each item, plus the end.
	indexOf := map[int]int{0: 0} // Item index at each instruction boundary.

	for index := 0; index < len(words); {
		in, length, err := table.Decode(words, index)
		for err == nil && length > 1 && !canonical(in, words[index:index+length]) {
			// Noncanonical prefix: decode it on its own.
			in, length, err = table.Decode(words[index:index+length-1], 0)
		}

		if err != nil {
			items = append(items, Word(words[index]))
			index++
		} else {
			items = append(items, in)
			index += length
		}

		addrOf = append(addrOf, index)
		indexOf[index] = len(items)
	}

	if !labels {
		return
	}

	end := addrOf[len(addrOf)-1]
	var targets []int
	for n, item := range items {
		in, ok := item.(*Instr)
		if !ok {
			continue
		}
		for _, name := range in.Type.PCRel {
			field, _ := in.Type.Field(name)
			op := in.Operands[field]
			target := addrOf[n+1] + op.Value
			if target < 0 || target >= end {
				continue
			}
			if _, boundary := indexOf[target]; !boundary {
				continue
			}
			in.Operands[field] = op.Kind.Reference(labelName(target))
			if !slices.Contains(targets, target) {
				targets = append(targets, target)
			}
		}
	}

	// Insert from the highest address, so lower indexes stay valid.
	slices.Sort(targets)
	slices.Reverse(targets)
	for _, target := range targets {
		items = slices.Insert(items, indexOf[target], Item(Label(labelName(target))))
	}

	return
}

// canonical returns true if the instruction encodes back to exactly code.
func canonical(in *Instr, code []uint16) bool {
	words, err := in.Encode(nil, false)
	return err == nil && slices.Equal(words, code)
}

func labelName(addr int) string {
	return fmt.Sprintf("L%d", addr)
}
