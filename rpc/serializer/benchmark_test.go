package serializer

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/dRel/lib/store"
	"github.com/ValentinKolb/dRel/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	cells := make([]store.Cell, 100)
	ops := make([]store.Op, 100)
	for i := range cells {
		cells[i] = store.Cell{Row: "row", Col: fmt.Sprintf("col-%03d", i), Value: make([]byte, 32)}
		ops[i] = store.Op{Type: store.OpTAdd, Row: "row", Col: fmt.Sprintf("col-%03d", i), Value: make([]byte, 32)}
	}

	return map[string]common.Message{
		"Empty":      {MsgType: common.MsgTSuccess},
		"Get":        *common.NewGetRequest("alice", "book-1"),
		"SmallAdd":   *common.NewAddRequest("alice", "book-1", []byte("v")),
		"LargeAdd":   *common.NewAddRequest("alice", "book-1", make([]byte, 16*1024)),
		"Batch100":   *common.NewBatchRequest(ops),
		"Row100":     *common.NewCellsResponse(common.MsgTRow, cells, nil),
		"ErrorReply": *common.NewErrorResponse("Lorem ipsum dolor sit amet, consectetur adipiscing elit."),
	}
}

func BenchmarkSerialize(b *testing.B) {
	for sName, factory := range testSerializers {
		s := factory()
		for mName, msg := range benchmarkMessages() {
			b.Run(sName+"/"+mName, func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := s.Serialize(msg); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkDeserialize(b *testing.B) {
	for sName, factory := range testSerializers {
		s := factory()
		for mName, msg := range benchmarkMessages() {
			data, err := s.Serialize(msg)
			if err != nil {
				b.Fatal(err)
			}
			b.Run(sName+"/"+mName, func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				for i := 0; i < b.N; i++ {
					var result common.Message
					if err := s.Deserialize(data, &result); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
