package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Run is the main entry point. Returns exit code. No signal or timeout
// handling: build is a batch operation the operator aborts the process for
// if needed, so Run dispatches synchronously rather than racing a graceful
// shutdown window.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string) int {
	globalFlags := flag.NewFlagSet("rlzbuild", flag.ContinueOnError)
	globalFlags.SetInterspersed(false)
	globalFlags.Usage = func() {}
	globalFlags.SetOutput(&strings.Builder{})
	flagHelp := globalFlags.BoolP("help", "h", false, "Show help")

	if err := globalFlags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printGlobalOptions(errOut)

		return 1
	}

	commands := allCommands()

	commandMap := make(map[string]*Command, len(commands))
	for _, cmd := range commands {
		commandMap[cmd.Name()] = cmd
	}

	commandAndArgs := globalFlags.Args()

	if *flagHelp || len(commandAndArgs) == 0 {
		printUsage(out, commands)

		return 0
	}

	cmdName := commandAndArgs[0]

	cmd, ok := commandMap[cmdName]
	if !ok {
		fprintln(errOut, "error: unknown command:", cmdName)
		printUsage(errOut, commands)

		return 1
	}

	cmdIO := NewIO(out, errOut)

	return cmd.Run(context.Background(), cmdIO, commandAndArgs[1:])
}

// allCommands returns all commands in display order.
func allCommands() []*Command {
	return []*Command{
		BuildCmd(),
		StatCmd(),
		ExtractCmd(),
		InspectCmd(),
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

const globalOptionsHelp = `  -h, --help             Show help`

func printGlobalOptions(w io.Writer) {
	fprintln(w, "Usage: rlzbuild [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Run 'rlzbuild --help' for a list of commands.")
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, "rlzbuild - RLZ compressed text-index builder")
	fprintln(w)
	fprintln(w, "Usage: rlzbuild [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Flags:")
	fprintln(w, globalOptionsHelp)
	fprintln(w)
	fprintln(w, "Commands:")

	for _, cmd := range commands {
		fprintln(w, cmd.HelpLine())
	}
}
