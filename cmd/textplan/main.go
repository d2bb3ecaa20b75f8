// Command textplan compiles textplan source into a Substrait Plan (or
// round-trips an already-emitted Plan between formats), mirroring the
// teacher's cmd/datalog CLI: flag-based, log.Fatalf on I/O failure,
// stdout for the result.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wbrown/substraitplan/textplan/compiler"
	"github.com/wbrown/substraitplan/textplan/diagnostics"
	"github.com/wbrown/substraitplan/textplan/emitter"
	"github.com/wbrown/substraitplan/textplan/pb"
	"github.com/wbrown/substraitplan/textplan/symboltable"
)

func main() {
	var from, to string
	var verbose, stats, dumpSymbols bool
	var outPath string

	flag.StringVar(&from, "from", "textplan", "input format: textplan|json|binary")
	flag.StringVar(&to, "to", "binary", "output format: binary|json|textplan")
	flag.StringVar(&outPath, "o", "", "output file (stdout if empty)")
	flag.BoolVar(&verbose, "verbose", false, "print pass/emit diagnostics to stderr")
	flag.BoolVar(&stats, "stats", false, "print plan size/relation-count stats to stderr")
	flag.BoolVar(&dumpSymbols, "dump-symbols", false, "print the populated symbol table to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [file]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles textplan source (or converts an already-emitted Plan) to a Substrait Plan.\n\n")
		fmt.Fprintf(os.Stderr, "Reads from the named file, or stdin if omitted.\n\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s plan.splan > plan.pb              # compile to binary\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -to json plan.splan                # compile to protobuf-JSON\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -from json -to binary plan.json    # re-encode JSON as binary\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose -dump-symbols plan.splan  # compile with diagnostics\n", os.Args[0])
	}
	flag.Parse()

	input, err := readInput(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to read input: %v", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	var bus *diagnostics.Bus
	if verbose {
		formatter := diagnostics.NewOutputFormatter(os.Stderr)
		bus = diagnostics.NewBus(formatter.Handle)
	}

	plan, tbl, err := loadPlan(from, input, bus)
	if err != nil {
		log.Fatalf("compile failed: %v", err)
	}

	if dumpSymbols {
		if tbl == nil {
			fmt.Fprintln(os.Stderr, "no symbol table available for this input format")
		} else {
			diagnostics.DumpSymbolTable(os.Stderr, tbl)
		}
	}

	encoded, err := encodePlan(to, plan)
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}

	if stats {
		printStats(plan, encoded)
	}

	if _, err := out.Write(encoded); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}
}

// readInput reads path, or stdin if path is empty.
func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(bufio.NewReader(os.Stdin))
	}
	return os.ReadFile(path)
}

// loadPlan parses input in the given format. For textplan source this
// runs the full five-pass compiler and returns its symbol table too
// (for -dump-symbols); json/binary inputs are already-emitted Plans with
// no symbol table to show.
func loadPlan(from string, input []byte, bus *diagnostics.Bus) (*pb.Plan, *symboltable.Table, error) {
	switch from {
	case "textplan":
		result, err := compiler.CompileWithConfig(string(input), emitter.DefaultConfig, bus)
		if err != nil {
			return nil, nil, err
		}
		return result.Plan, result.Table, nil

	case "json":
		// A single leading `#` comment line may precede the JSON body.
		stripped := stripLeadingComment(input)
		plan, err := pb.UnmarshalTextJSON(stripped)
		return plan, nil, err

	case "binary":
		plan, err := pb.UnmarshalBinaryPlan(input)
		return plan, nil, err

	default:
		return nil, nil, fmt.Errorf("unknown -from format %q (want textplan|json|binary)", from)
	}
}

func stripLeadingComment(input []byte) []byte {
	if len(input) == 0 || input[0] != '#' {
		return input
	}
	if i := bytes.IndexByte(input, '\n'); i >= 0 {
		return input[i+1:]
	}
	return nil
}

// encodePlan renders plan in the requested output format. -to textplan
// is not supported: turning a Plan back into textplan source is a
// reverse printer, which spec.md §1 explicitly scopes out as an
// external collaborator — no concrete implementation exists in this
// corpus to ground one on.
func encodePlan(to string, plan *pb.Plan) ([]byte, error) {
	switch to {
	case "binary":
		return plan.MarshalBinary()
	case "json":
		return pb.MarshalTextJSON(plan)
	case "textplan":
		return nil, fmt.Errorf("-to textplan is not supported: reverse-printing a Plan to textplan source is outside this compiler's scope")
	default:
		return nil, fmt.Errorf("unknown -to format %q (want binary|json|textplan)", to)
	}
}

func printStats(plan *pb.Plan, encoded []byte) {
	var b strings.Builder
	fmt.Fprintf(&b, "relations: %d\n", len(plan.Relations))
	fmt.Fprintf(&b, "extensions: %d\n", len(plan.Extensions))
	fmt.Fprintf(&b, "extension URIs: %d\n", len(plan.ExtensionURIs))
	fmt.Fprintf(&b, "encoded size: %s\n", humanize.Bytes(uint64(len(encoded))))
	fmt.Fprint(os.Stderr, b.String())
}
