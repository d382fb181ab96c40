package main

import (
	"flag"
	"io"
	"log"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/richardhundt/lua-marshal"
)

func process(fname string, b []byte) {

	t, err := marshal.Unmarshal(b)

	if err != nil {
		log.Fatalf("error processing %s: %s", fname, err)
	}

	spew.Dump(t)
}

func main() {

	flag.Parse()

	if flag.NArg() == 0 {
		b, _ := io.ReadAll(os.Stdin)
		process("stdin", b)
		return
	}

	for _, arg := range flag.Args() {
		b, _ := os.ReadFile(arg)
		process(arg, b)
	}
}
