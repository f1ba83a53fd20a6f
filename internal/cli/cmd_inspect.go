package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/rlzstore/rlzstore/pkg/builder"
	"github.com/rlzstore/rlzstore/pkg/rlzconfig"
	"github.com/rlzstore/rlzstore/pkg/rlzlog"
)

// InspectCmd is a debugging aid, not part of the core contract: an
// interactive REPL for typing byte ranges and watching the factors that
// cover them stream out. Grounded on cmd/sloty's REPL, which wraps
// github.com/peterh/liner the same way: history file, tab completion over a
// fixed command set, Ctrl-C at the prompt ends the REPL (history is saved)
// rather than killing the process.
func InspectCmd() *Command {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	cf := addCollectionFlags(fs)

	return &Command{
		Flags: fs,
		Usage: "inspect -c <dir>",
		Short: "Interactive REPL for exploring a built index",
		Long:  "Not part of the core contract. Lets you extract byte ranges and list\nthe factors covering a block while the index is open.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			b, _, err := openBuilder(cf, rlzconfig.Params{}, rlzlog.Nop{})
			if err != nil {
				return err
			}

			idx, err := b.BuildOrLoad(ctx)
			if err != nil {
				return err
			}

			repl := &inspectREPL{o: o, idx: idx}

			return repl.run()
		},
	}
}

type inspectREPL struct {
	o     *IO
	idx   *builder.Index
	liner *liner.State
}

func inspectHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".rlzbuild_inspect_history")
}

func (r *inspectREPL) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(inspectHistoryFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	r.o.Printf("rlzbuild inspect (dict_hash=%s, dict_bytes=%d, blocks=%d)\n",
		r.idx.DictHash, len(r.idx.Dict), r.idx.Map.NumBlocks())
	r.o.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("rlzbuild> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				r.o.Println("\nBye!")

				break
			}

			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.o.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "extract":
			r.cmdExtract(args)

		case "factors":
			r.cmdFactors(args)

		case "info":
			r.cmdInfo()

		default:
			r.o.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *inspectREPL) saveHistory() {
	if path := inspectHistoryFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *inspectREPL) completer(line string) []string {
	commands := []string{"extract", "factors", "info", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *inspectREPL) printHelp() {
	r.o.Println("Commands:")
	r.o.Println("  extract <offset> <len>   Decode a byte range of the original text")
	r.o.Println("  factors <blockID>        List the factors covering a factorization block")
	r.o.Println("  info                     Show index summary")
	r.o.Println("  help                     Show this help")
	r.o.Println("  exit / quit / q          Exit")
}

func (r *inspectREPL) cmdExtract(args []string) {
	if len(args) != 2 {
		r.o.Println("Usage: extract <offset> <len>")

		return
	}

	offset, err := strconv.Atoi(args[0])
	if err != nil {
		r.o.Printf("Error parsing offset: %v\n", err)

		return
	}

	length, err := strconv.Atoi(args[1])
	if err != nil {
		r.o.Printf("Error parsing len: %v\n", err)

		return
	}

	out, err := r.idx.Reader.ExtractRange(offset, length)
	if err != nil {
		r.o.Printf("Error: %v\n", err)

		return
	}

	r.o.Printf("%q\n", out)
}

func (r *inspectREPL) cmdFactors(args []string) {
	if len(args) != 1 {
		r.o.Println("Usage: factors <blockID>")

		return
	}

	blockID, err := strconv.Atoi(args[0])
	if err != nil {
		r.o.Printf("Error parsing blockID: %v\n", err)

		return
	}

	if blockID < 0 || blockID >= r.idx.Map.NumBlocks() {
		r.o.Printf("blockID out of range [0, %d)\n", r.idx.Map.NumBlocks())

		return
	}

	n := 0

	for f := range r.idx.Reader.Factors(blockID) {
		if f.Literal {
			r.o.Printf("%4d. literal byte=%q\n", n, f.Byte)
		} else {
			r.o.Printf("%4d. match offset=%d len=%d\n", n, f.Offset, f.Len)
		}

		n++
	}

	r.o.Printf("(%d factors)\n", n)
}

func (r *inspectREPL) cmdInfo() {
	r.o.Printf("dict_hash:  %s\n", r.idx.DictHash)
	r.o.Printf("dict_bytes: %d\n", len(r.idx.Dict))
	r.o.Printf("blocks:     %d\n", r.idx.Map.NumBlocks())
	r.o.Printf("bit_length: %d\n", r.idx.Map.BO[len(r.idx.Map.BO)-1])
}
