package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/boneless/internal"
)

// Text renders items as assembly source, one line per item. Instructions
// are annotated with their encoding. Symbol tables render as the
// directives that produce them.
func Text(items []Item) string {
	var sb strings.Builder
	writeText(&sb, items)
	return sb.String()
}

func writeText(sb *strings.Builder, items []Item) {
	for _, item := range items {
		switch it := item.(type) {
		case Items:
			writeText(sb, it)
		case Label:
			fmt.Fprintf(sb, "%v:\n", string(it))
		case Constant:
			fmt.Fprintf(sb, "\t.equ\t%v, %d\n", it.Name, it.Value)
		case Word:
			fmt.Fprintf(sb, "\t.word\t%#x\n", uint16(it))
		case Unresolved:
			fmt.Fprintf(sb, "\t.word\t%v\n", string(it))
		case WordTable:
			fmt.Fprintf(sb, "\t.word\t%v\n", strings.Join(it, ", "))
		case JumpTable:
			fmt.Fprintf(sb, "\t.jumptable\t%v\n", strings.Join(it, ", "))
		case *Instr:
			text := it.String()
			tabs := max(0, 4-len(internal.ExpandTabs(text))/8)

			encoding := "<reloc>"
			if words, err := it.Encode(nil, false); err == nil {
				codes := make([]string, len(words))
				for n, word := range words {
					codes[n] = fmt.Sprintf("%04X", word)
				}
				encoding = strings.Join(codes, " ")
			}

			fmt.Fprintf(sb, "\t%v%v; %v\n", text, strings.Repeat("\t", tabs), encoding)
		}
	}
}
