package cpu

// Item is an element of a program: a raw word, a nested list of items, a
// label or constant definition, an instruction, or a relocator.
type Item interface {
	item()
}

// Word is a raw machine word.
type Word uint16

// Items is a nested list of items; it is flattened on assembly.
type Items []Item

// Label defines a symbol at the address of the next word.
type Label string

// Constant defines a symbol with a literal value.
type Constant struct {
	Name  string
	Value int
}

// Unresolved is a one word placeholder for a symbol a relocator could not resolve.
type Unresolved string

// Relocator is an item whose contents depend on symbol values.
//
// Relocate is called with the address the item will be placed at, and a
// resolver returning symbol values relative to that address.
type Relocator interface {
	Item
	Relocate(addr int, resolve Resolver) Item
}

func (Word) item()       {}
func (Items) item()      {}
func (Label) item()      {}
func (Constant) item()   {}
func (Unresolved) item() {}
func (*Instr) item()     {}

// JumpTable emits, for each symbol, its offset from the start of the table.
type JumpTable []string

func (JumpTable) item() {}

// Relocate resolves the table entries.
func (jt JumpTable) Relocate(addr int, resolve Resolver) Item {
	out := make(Items, len(jt))
	for n, symbol := range jt {
		value, ok := resolve(symbol)
		if ok {
			out[n] = Word(uint16(value))
		} else {
			out[n] = Unresolved(symbol)
		}
	}
	return out
}

// WordTable emits, for each label, its absolute address.
type WordTable []string

func (WordTable) item() {}

// Relocate resolves the table entries.
func (wt WordTable) Relocate(addr int, resolve Resolver) Item {
	out := make(Items, len(wt))
	for n, symbol := range wt {
		value, ok := resolve(symbol)
		if ok {
			out[n] = Word(uint16(addr + value))
		} else {
			out[n] = Unresolved(symbol)
		}
	}
	return out
}

var (
	_ Relocator = JumpTable(nil)
	_ Relocator = WordTable(nil)
)
