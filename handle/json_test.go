package handle_test

import (
	"encoding/json"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"

	"github.com/memchain/memchain/handle"
)

func TestJsonData(t *testing.T) {
	blocks := twoBlockChain()
	alloc := handle.NewAllocation[int](blocks[0], 2, 4)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	alloc.JsonData(obj)
	obj.End()

	require.NoError(t, writer.Error())
	require.True(t, json.Valid(writer.Bytes()), "allocation dump should be valid json: %s", writer.Bytes())

	var decoded struct {
		ElementType string
		Offset      int
		Length      int
		MultiBlock  bool
		Blocks      int
	}
	require.NoError(t, json.Unmarshal(writer.Bytes(), &decoded))
	require.Equal(t, "int", decoded.ElementType)
	require.Equal(t, 2, decoded.Offset)
	require.Equal(t, 4, decoded.Length)
	require.True(t, decoded.MultiBlock)
	require.Equal(t, 2, decoded.Blocks)
}
