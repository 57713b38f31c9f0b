package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/drpcorg/docstore"
	"github.com/drpcorg/docstore/model"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/ergochat/readline"
)

// REPL over a local store: base documents play the server side,
// set/patch/delete create overlays under an incrementing batch id.
type REPL struct {
	store *docstore.Store
	rl    *readline.Instance
	batch int64
}

var ErrBadArgs = errors.New("bad arguments, see help")

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("base"),
	readline.PcItem("set"),
	readline.PcItem("patch"),
	readline.PcItem("delete"),

	readline.PcItem("get"),
	readline.PcItem("overlay"),
	readline.PcItem("list"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

const help = `
base  col/doc k=v ...   store the base (server) document
set   col/doc k=v ...   overlay: replace the document
patch col/doc k=v ...   overlay: merge fields
delete col/doc          overlay: delete the document
get   col/doc           materialize the local view
overlay col/doc         show the document's overlay
list                    local views of all changed documents
exit, quit
`

func (repl *REPL) Open(dir string) (err error) {
	repl.store, err = docstore.Open(dir, docstore.Options{Name: "repl"})
	if err != nil {
		return
	}
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     ".docstore_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold: true,
	})
	if err == nil {
		repl.rl.CaptureExitSignal()
	}
	return
}

func (repl *REPL) Close() {
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	if repl.store != nil {
		_ = repl.store.Close()
		repl.store = nil
	}
}

func parseValue(txt string) any {
	if i, err := strconv.ParseInt(txt, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(txt, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(txt); err == nil {
		return b
	}
	if txt == "null" {
		return nil
	}
	return strings.Trim(txt, `"`)
}

func parseKeyFields(args []string) (model.DocumentKey, model.Fields, error) {
	if len(args) == 0 {
		return model.DocumentKey{}, nil, ErrBadArgs
	}
	key, err := model.KeyFromString(args[0])
	if err != nil {
		return model.DocumentKey{}, nil, err
	}
	fields := make(model.Fields)
	for _, arg := range args[1:] {
		name, txt, found := strings.Cut(arg, "=")
		if !found || len(name) == 0 {
			return model.DocumentKey{}, nil, ErrBadArgs
		}
		fields[name] = parseValue(txt)
	}
	return key, fields, nil
}

func (repl *REPL) run(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd := args[0]
	args = args[1:]
	switch cmd {
	case "help":
		fmt.Print(help)
		return nil
	case "list":
		for doc := range repl.store.LocalViews() {
			fmt.Println(doc)
		}
		return nil
	}
	key, fields, err := parseKeyFields(args)
	if err != nil {
		return err
	}
	switch cmd {
	case "base":
		return repl.store.SetBase(model.NewDocument(key, fields))
	case "set":
		repl.batch++
		return repl.store.SaveOverlay(repl.batch, model.NewSet(key, fields))
	case "patch":
		repl.batch++
		return repl.store.SaveOverlay(repl.batch, model.NewPatch(key, fields))
	case "delete":
		repl.batch++
		return repl.store.SaveOverlay(repl.batch, model.NewDelete(key))
	case "get":
		doc, err := repl.store.LocalView(key)
		if err != nil {
			return err
		}
		fmt.Println(doc)
		return nil
	case "overlay":
		o, err := repl.store.Overlay(key)
		if err == store_errors.ErrOverlayUnknown {
			fmt.Println("no overlay")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(o)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func main() {
	dir := ".docstore"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	repl := REPL{}
	if err := repl.Open(dir); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer repl.Close()
	for {
		line, err := repl.rl.Readline()
		if err == readline.ErrInterrupt && len(line) != 0 {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return
		}
		line = strings.TrimSpace(line)
		if line == "exit" || line == "quit" {
			return
		}
		if err = repl.run(line); err != nil {
			fmt.Println(err.Error())
		}
	}
}
