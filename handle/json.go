package handle

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// JsonData populates a json object with information about this allocation:
// its shape within the chain, not its element data.
func (a Allocation[T]) JsonData(json jwriter.ObjectState) {
	blockCount := 0
	for windows := a.Windows(); windows.Next(); {
		blockCount++
	}

	json.Name("ElementType").String(a.ElementType().String())
	json.Name("Offset").Int(a.Offset())
	json.Name("Length").Int(a.length)
	json.Name("MultiBlock").Bool(a.IsMultiBlock())
	json.Name("Blocks").Int(blockCount)
}
