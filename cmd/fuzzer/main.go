package main

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"os"

	"github.com/dchest/siphash"
	"github.com/dgryski/go-ddmin"
	"github.com/richardhundt/lua-marshal"
)

// crash filenames are content-addressed so reruns dedup themselves
const (
	hashKey0 = 0x646d617266757a7a
	hashKey1 = 0x6c75616d6172736c
)

// crashes reports whether decoding doc panics.
func crashes(doc []byte) (crashed bool) {
	defer func() {
		if recover() != nil {
			crashed = true
		}
	}()
	marshal.Unmarshal(doc)
	return false
}

func save(doc []byte) {
	h := siphash.Hash(hashKey0, hashKey1, doc)
	fname := fmt.Sprintf("crash-%016x", h)
	if err := os.WriteFile(fname, doc, 0o644); err != nil {
		fmt.Println("unable to save:", err)
		return
	}
	fmt.Println("saved", fname)
}

func main() {

	header := []byte{0x8e, 1}

	for {
		l := mrand.Intn(200)
		b := make([]byte, l)
		crand.Read(b)
		doc := make([]byte, len(header)+l)
		copy(doc, header)
		copy(doc[len(header):], b)

		if !crashes(doc) {
			continue
		}

		fmt.Println("crasher:")
		fmt.Println(hex.Dump(doc))

		min := ddmin.Minimize(doc, func(d []byte) ddmin.Result {
			if crashes(d) {
				return ddmin.Fail
			}
			return ddmin.Pass
		})

		fmt.Println("minimized:")
		fmt.Println(hex.Dump(min))
		save(min)
	}
}
