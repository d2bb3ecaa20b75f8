package diagnostics

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/substraitplan/textplan/symboltable"
)

// DumpSymbolTable renders every symbol in tbl as a markdown table to w,
// grounded on the teacher's executor.TableFormatter — same renderer
// (renderer.NewMarkdown), same "no column alignment, auto-format off"
// options, same row-count footer.
func DumpSymbolTable(w io.Writer, tbl *symboltable.Table) {
	symbols := tbl.All()
	if len(symbols) == 0 {
		fmt.Fprintln(w, "_No symbols_")
		return
	}

	headers := []string{"Name", "Alias", "Type", "Subtype", "Location", "Parent Query"}
	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)

	for _, sym := range symbols {
		table.Append([]string{
			sym.Name,
			sym.Alias,
			symbolTypeName(sym.Type),
			relationKindName(sym),
			sym.Location.String(),
			parentQueryCell(sym),
		})
	}

	table.Render()
	fmt.Fprintf(w, "\n_%d symbols_\n", len(symbols))
}

func symbolTypeName(t symboltable.SymbolType) string {
	switch t {
	case symboltable.ExtensionSpace:
		return "ExtensionSpace"
	case symboltable.Function:
		return "Function"
	case symboltable.PlanRelation:
		return "PlanRelation"
	case symboltable.Relation:
		return "Relation"
	case symboltable.Schema:
		return "Schema"
	case symboltable.SchemaColumn:
		return "SchemaColumn"
	case symboltable.Source:
		return "Source"
	case symboltable.SourceDetail:
		return "SourceDetail"
	case symboltable.Field:
		return "Field"
	case symboltable.Root:
		return "Root"
	case symboltable.Table:
		return "Table"
	case symboltable.Measure:
		return "Measure"
	default:
		return "Unknown"
	}
}

func relationKindName(sym *symboltable.Symbol) string {
	if sym.Type != symboltable.Relation {
		return ""
	}
	switch sym.Subtype {
	case symboltable.KindRead:
		return "Read"
	case symboltable.KindProject:
		return "Project"
	case symboltable.KindJoin:
		return "Join"
	case symboltable.KindCross:
		return "Cross"
	case symboltable.KindFetch:
		return "Fetch"
	case symboltable.KindAggregate:
		return "Aggregate"
	case symboltable.KindSort:
		return "Sort"
	case symboltable.KindFilter:
		return "Filter"
	case symboltable.KindSet:
		return "Set"
	case symboltable.KindHashJoin:
		return "HashJoin"
	case symboltable.KindMergeJoin:
		return "MergeJoin"
	case symboltable.KindExchange:
		return "Exchange"
	case symboltable.KindDdl:
		return "Ddl"
	case symboltable.KindWrite:
		return "Write"
	case symboltable.KindExtensionLeaf:
		return "ExtensionLeaf"
	case symboltable.KindExtensionSingle:
		return "ExtensionSingle"
	case symboltable.KindExtensionMulti:
		return "ExtensionMulti"
	case symboltable.KindRoot:
		return "Root"
	default:
		return "Unknown"
	}
}

func parentQueryCell(sym *symboltable.Symbol) string {
	if !sym.IsSubquery() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]", sym.ParentQueryLocation.String(), sym.ParentQueryIndex)
	return b.String()
}
