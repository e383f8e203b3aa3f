package protocol_test

import (
	"fmt"
	"log"

	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/rs/zerolog"
)

// ExampleCodec_Encode encodes a price book increment and decodes it back.
func ExampleCodec_Encode() {
	codec, err := protocol.NewCodec(schema.MustTrading(), protocol.WithLogger(zerolog.Nop()))
	if err != nil {
		log.Fatal(err)
	}

	level := protocol.NewRecord()
	level.Set("id", protocol.U64(1)).
		Set("price", protocol.F64(100.25)).
		Set("leavesQty", protocol.F64(10)).
		Set("transactTime", protocol.I64(1))
	bid := protocol.NewRecord()
	bid.Set("priceLevel", protocol.CompositeOf(level)).Set("updateAction", protocol.EnumOf("NEW"))
	elem := protocol.NewRecord()
	elem.Set("bid", protocol.CompositeOf(bid))

	rec := protocol.NewRecord()
	rec.Set("compId", protocol.U64(7)).Set("instrumentId", protocol.U64(42))
	rec.Append("bids", elem)

	buf := make([]byte, 256)
	n, err := codec.Encode(buf, 0, "PriceIncrement", rec)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Encoded %d bytes\n", n)

	msg, err := codec.Decode(buf[:n], 0)
	if err != nil {
		log.Fatal(err)
	}
	got := msg.Group("bids")[0].Get("bid").Composite
	fmt.Printf("Message: %s template=%d\n", msg.Name, msg.Header.TemplateID)
	fmt.Printf("Bids: %d Offers: %d\n", len(msg.Group("bids")), len(msg.Group("offers")))
	fmt.Printf("Action: %s Price: %g\n", got.Get("updateAction").Enum, got.Get("priceLevel").Composite.Get("price").Float)

	// Output:
	// Encoded 49 bytes
	// Message: PriceIncrement template=2
	// Bids: 1 Offers: 0
	// Action: NEW Price: 100.25
}
