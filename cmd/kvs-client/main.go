// Command kvs-client talks to a kvs-server over TCP, either one command
// at a time or interactively.
package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/peterh/liner"

	"github.com/jptalukdar/kvs/internal/client"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "get":
		return runGet(rest)
	case "set":
		return runSet(rest)
	case "rm":
		return runRemove(rest)
	case "repl":
		return runRepl(rest)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: kvs-client <get|set|rm|repl> [args] [--addr host:port]`)
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	addr := fs.StringP("addr", "a", "127.0.0.1:4000", "server address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kvs-client get <key> [--addr host:port]")
	}

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	value, ok, err := c.Get(fs.Arg(0))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Key not found")
		return nil
	}
	fmt.Println(value)
	return nil
}

func runSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	addr := fs.StringP("addr", "a", "127.0.0.1:4000", "server address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: kvs-client set <key> <value> [--addr host:port]")
	}

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.Set(fs.Arg(0), fs.Arg(1))
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	addr := fs.StringP("addr", "a", "127.0.0.1:4000", "server address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kvs-client rm <key> [--addr host:port]")
	}

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.Remove(fs.Arg(0))
}

// runRepl keeps one connection open across many commands, typed
// interactively with history and line editing courtesy of liner.
func runRepl(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	addr := fs.StringP("addr", "a", "127.0.0.1:4000", "server address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("kvs> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				return nil
			}
			return nil
		}
		line.AppendHistory(input)

		if err := dispatchReplLine(c, input); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func dispatchReplLine(c *client.Client, input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get <key>")
		}
		value, ok, err := c.Get(fields[1])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Key not found")
			return nil
		}
		fmt.Println(value)
		return nil

	case "set":
		if len(fields) != 3 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		return c.Set(fields[1], fields[2])

	case "rm":
		if len(fields) != 2 {
			return fmt.Errorf("usage: rm <key>")
		}
		return c.Remove(fields[1])

	case "exit", "quit":
		os.Exit(0)
		return nil

	default:
		return fmt.Errorf("unknown command %q (expected get/set/rm/exit)", fields[0])
	}
}
