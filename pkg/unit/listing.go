package unit

import (
	"fmt"
	"strings"

	"github.com/cmmoran/beandefgen/pkg/asm"
)

// Listing renders u as stable, line-oriented text for diffs and inspection.
func Listing(u *Unit) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", u.Kind, u.Name)
	fmt.Fprintf(&sb, "  bean %s\n", u.BeanType)
	fmt.Fprintf(&sb, "  extends %s\n", u.SuperType)
	for _, i := range u.Interfaces {
		fmt.Fprintf(&sb, "  implements %s\n", i)
	}
	for _, m := range u.Methods {
		fmt.Fprintf(&sb, "\n  %s %s\n", asm.Descriptor(m.Name, m.Params), m.Returns)
		if m.Body == nil {
			continue
		}
		fmt.Fprintf(&sb, "    locals %d\n", m.Body.Locals)
		for i, in := range m.Body.Instrs {
			if in.Op == asm.OpLabel {
				fmt.Fprintf(&sb, "   %s\n", in)
				continue
			}
			fmt.Fprintf(&sb, "    %04d %s\n", i, in)
		}
		for _, h := range m.Body.Handlers {
			fmt.Fprintf(&sb, "    catch %s L%d..L%d -> L%d\n", h.Catch, h.Start, h.End, h.Target)
		}
	}
	return sb.String()
}
