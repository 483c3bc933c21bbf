package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree("asm15")
	root.AddCommand(cmd.Command{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:  "assemble",
		Brief: "Assemble a source file",
		Description: "Run the assembler on the named translation unit." +
			" The name carries no extension: the source is read from" +
			" <name>.as, and a clean run writes <name>.am, <name>.ob and" +
			" the non-empty .ent/.ext artifacts.",
		Usage: "assemble <name>",
		Data:  (*Host).cmdAssemble,
	})
	root.AddCommand(cmd.Command{
		Name:  "load",
		Brief: "Load an object file",
		Description: "Load an assembled object file into the machine's" +
			" memory and place the program counter at its origin.",
		Usage: "load <filename>",
		Data:  (*Host).cmdLoad,
	})
	root.AddCommand(cmd.Command{
		Name:  "run",
		Brief: "Run the machine",
		Description: "Run the loaded program until it executes stop or" +
			" the instruction budget is exhausted.",
		Usage: "run",
		Data:  (*Host).cmdRun,
	})
	root.AddCommand(cmd.Command{
		Name:  "step",
		Brief: "Step one instruction",
		Description: "Execute a single instruction and display the" +
			" machine state. The number of steps may be specified as an" +
			" option.",
		Usage: "step [<count>]",
		Data:  (*Host).cmdStep,
	})
	root.AddCommand(cmd.Command{
		Name:  "registers",
		Brief: "Display register contents",
		Description: "Display the current contents of all machine" +
			" registers and disassemble the instruction at the current" +
			" program counter address.",
		Usage: "registers",
		Data:  (*Host).cmdRegisters,
	})
	root.AddCommand(cmd.Command{
		Name:  "disassemble",
		Brief: "Disassemble memory",
		Description: "Disassemble machine words starting at the requested" +
			" address. If no address is specified, the disassembly" +
			" continues from where the last one left off.",
		Usage: "disassemble [<address>] [<count>]",
		Data:  (*Host).cmdDisassemble,
	})

	// Memory commands
	mem := cmd.NewTree("Memory")
	root.AddCommand(cmd.Command{
		Name:    "memory",
		Brief:   "Memory commands",
		Subtree: mem,
	})
	mem.AddCommand(cmd.Command{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump words of memory starting from the specified" +
			" address. If no address is specified, the dump continues" +
			" from where the last one left off.",
		Usage: "memory dump [<address>] [<words>]",
		Data:  (*Host).cmdMemoryDump,
	})
	mem.AddCommand(cmd.Command{
		Name:  "set",
		Brief: "Set memory at address",
		Description: "Store a series of space-separated word values into" +
			" memory starting at the specified address.",
		Usage: "memory set <address> <value> [<value> ...]",
		Data:  (*Host).cmdMemorySet,
	})

	root.AddCommand(cmd.Command{
		Name:  "symbols",
		Brief: "Display the symbol table",
		Description: "Display the symbol table of the most recently" +
			" assembled translation unit.",
		Usage: "symbols",
		Data:  (*Host).cmdSymbols,
	})
	root.AddCommand(cmd.Command{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see" +
			" the current values of all configuration variables, type set" +
			" without any arguments.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})

	// Add command shortcuts.
	root.AddShortcut("a", "assemble")
	root.AddShortcut("l", "load")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "registers")
	root.AddShortcut("s", "step")
	root.AddShortcut("sy", "symbols")
	root.AddShortcut("?", "help")
	root.AddShortcut(".", "registers")

	cmds = root
}
