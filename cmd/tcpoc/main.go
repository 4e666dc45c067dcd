// Command tcpoc compiles one source file through the grammar runtime,
// the task-lowering transformer and the unparser, in that order,
// printing the rewritten program to stdout. It never exits non-zero:
// every failure (a bad flag, a missing file, a parse error) is
// reported on stderr via log.Print and the process still returns 0,
// so a build driver can distinguish outcomes only by the output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tcpoc/tcpoc/ast"
	"github.com/tcpoc/tcpoc/parser"
	"github.com/tcpoc/tcpoc/parser/cgrammar"
	"github.com/tcpoc/tcpoc/task"
	"github.com/tcpoc/tcpoc/unparse"
)

type args struct {
	inputPath *string
	watch     *bool
	tabWidth  *int
	memoize   *bool
	suggest   *bool
}

func readArgs() *args {
	// ContinueOnError keeps a malformed flag from exiting with status 2;
	// the error is logged and the run ends without an input file.
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	a := &args{
		inputPath: flag.String("input", "", "Path to the input file"),
		watch:     flag.Bool("watch", false, "Recompile whenever the input file changes"),
		tabWidth:  flag.Int("tab-width", 4, "Tab stop width used when tracking source positions"),
		memoize:   flag.Bool("memoize", true, "Enable packrat memoization in the parser"),
		suggest:   flag.Bool("suggest", true, "Suggest the closest known keyword on parse failure"),
	}
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		log.Printf("tcpoc: %s", err)
		*a.inputPath = ""
		return a
	}
	if *a.inputPath == "" && flag.NArg() > 0 {
		*a.inputPath = flag.Arg(0)
	}
	return a
}

func main() {
	a := readArgs()

	if *a.inputPath == "" {
		log.Print("tcpoc: no input file (pass a path, or -input)")
		return
	}

	if *a.watch {
		watchAndCompile(a)
		return
	}

	compileOnce(a)
}

// compileOnce runs the whole pipeline once and reports the outcome on
// stderr/stdout without ever returning a value main acts on, since
// there's exactly one caller and the CLI's exit code never varies.
func compileOnce(a *args) {
	text, err := os.ReadFile(*a.inputPath)
	if err != nil {
		log.Printf("tcpoc: can't open input file: %s", err)
		return
	}

	grm, syms := cgrammar.Build()

	p := parser.New(grm, text)
	p.Memoize = *a.memoize
	p.SetTabWidth(*a.tabWidth)

	result, err := p.Parse("Root")
	if err != nil {
		reportParseFailure(err, text, *a.suggest)
		return
	}

	root, ok := result.(*ast.Tree)
	if !ok {
		log.Print("tcpoc: grammar did not produce a declaration list at Root")
		return
	}

	lowerer := task.NewLowerer(syms)
	reg, rewritten, err := lowerer.Lower(root)
	if err != nil {
		log.Printf("tcpoc: %s", err)
		return
	}

	steps := lowerer.StepFunctions(voidTypeQual())
	rewritten = ast.NewTree(rewritten.Param, append(append([]ast.Node{}, rewritten.Children...), steps...), rewritten.Range())

	fmt.Print(unparse.TreeIndent(rewritten, *a.tabWidth))

	updateCache(reg, *a.inputPath)
}

// voidTypeQual builds the TypeQual list every synthesized step
// function declares itself with: "void", the same shape
// parser/cgrammar's own TypeQual rule would produce for that keyword.
func voidTypeQual() *ast.Tree {
	return ast.NewTree(&ast.TreeParam{Kind: ast.ListKind, Format: ""},
		[]ast.Node{ast.NewTree(&ast.TreeParam{Kind: "void", Format: "void"}, nil, ast.Range{})},
		ast.Range{})
}

// reportParseFailure prints the deepest-reach failure report and, when
// suggest is set, appends a fuzzy-matched "did you mean" hint comparing
// the word at the failure position against the grammar's own keyword
// set — the `tsak`-for-`task` case.
func reportParseFailure(err error, input []byte, suggest bool) {
	log.Print(err)
	if !suggest {
		return
	}
	failure, ok := err.(*parser.Failure)
	if !ok {
		return
	}
	word := wordAt(input, failure.Pos.Offset)
	if word == "" {
		return
	}
	hint := suggestKeyword(word, cgrammar.Keywords)
	if hint != "" && hint != word {
		log.Printf("did you mean `%s`?", hint)
	}
}

// wordAt returns the identifier-shaped token at offset, or "".
func wordAt(input []byte, offset int) string {
	isWord := func(c byte) bool {
		return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
	}
	start := offset
	for start > 0 && isWord(input[start-1]) {
		start--
	}
	end := offset
	for end < len(input) && isWord(input[end]) {
		end++
	}
	return string(input[start:end])
}

// suggestKeyword returns the keyword in choices closest to word by
// edit distance, or "" when nothing is within two edits — far enough
// that a hint would be noise rather than help.
func suggestKeyword(word string, choices []string) string {
	best, bestDist := "", 3
	for _, c := range choices {
		if d := fuzzy.LevenshteinDistance(word, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// updateCache persists the current registry summary to inputPath's
// ".tcpoc-cache" sidecar, logging which task names appeared or
// disappeared since the last cached run (if any).
func updateCache(reg *task.Registry, inputPath string) {
	cachePath := inputPath + ".tcpoc-cache"
	summary := reg.Summary()

	if f, err := os.Open(cachePath); err == nil {
		prev, err := task.ReadCache(f)
		f.Close()
		if err == nil {
			added, removed := summary.Diff(prev)
			for _, name := range added {
				log.Printf("tcpoc: new task %q", name)
			}
			for _, name := range removed {
				log.Printf("tcpoc: task %q no longer present", name)
			}
		}
	}

	f, err := os.Create(cachePath)
	if err != nil {
		log.Printf("tcpoc: can't write cache: %s", err)
		return
	}
	defer f.Close()
	if err := task.WriteCache(f, summary); err != nil {
		log.Printf("tcpoc: can't write cache: %s", err)
	}
}

// watchAndCompile runs compileOnce once up front, then again every
// time the input file is written to, until the process is killed.
func watchAndCompile(a *args) {
	compileOnce(a)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("tcpoc: can't start watcher: %s", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(*a.inputPath); err != nil {
		log.Printf("tcpoc: can't watch %s: %s", *a.inputPath, err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				compileOnce(a)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("tcpoc: watcher error: %s", err)
		}
	}
}
