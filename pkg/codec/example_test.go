package codec_test

import (
	"fmt"
	"log"

	"github.com/ssargent/ersave/pkg/codec"
)

// ExampleCursor demonstrates writing and reading primitives
func ExampleCursor() {
	buf := make([]byte, 4+16*2)

	w := codec.NewCursor(buf)
	if err := w.PutU32(160); err != nil {
		log.Fatal(err)
	}
	if err := w.PutUTF16("Melina", 16); err != nil {
		log.Fatal(err)
	}

	r := codec.NewCursor(buf)
	version, _ := r.U32()
	name, _ := r.UTF16(16)
	fmt.Printf("version=%d name=%s\n", version, name)

	// Output:
	// version=160 name=Melina
}

// ExampleDecodeItemHandleTable shows that entry sizes follow the handle type
func ExampleDecodeItemHandleTable() {
	table := &codec.ItemHandleTable{Entries: []codec.ItemHandle{
		{Handle: 0x80800001, ItemID: 0x000F4240},
		{Handle: 0x90000002, ItemID: 0x10000064},
		{Handle: 0xC0000003, ItemID: 0x80002710},
		{},
	}}

	for _, e := range table.Entries {
		fmt.Printf("%s=%d\n", e.Kind(), e.Size())
	}
	fmt.Printf("total=%d\n", table.Size())

	// Output:
	// weapon=21
	// extended=16
	// compact=8
	// empty=8
	// total=53
}
