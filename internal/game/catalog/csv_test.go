package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/inkwell-labs/lorcana-engine/internal/game/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exportCSV = `id,name,type,subtypes,inkable,cost,strength,willpower,lore,move_cost,shift_cost,keywords
brave-mouse,Brave Mouse,Character,Hero;Storyborn,true,3,3,3,1,,,Evasive;Resist +1
brave-mouse-captain,Brave Mouse,character,Hero;Floodborn,false,5,4,5,2,,3,
old-mill,Old Mill,Location,,1,2,,6,1,1,,
broken,Broken,character,,true,three,1,1,1,,,
`

func TestImportCSV(t *testing.T) {
	defs, err := ImportCSV(strings.NewReader(exportCSV))
	require.Error(t, err, "the bad row is reported")
	assert.Contains(t, err.Error(), "row 5")
	require.Len(t, defs, 3)

	mouse := defs[0]
	assert.Equal(t, state.TypeCharacter, mouse.Type)
	assert.Equal(t, []string{"Hero", "Storyborn"}, mouse.Subtypes)
	assert.True(t, mouse.Inkable)
	assert.Equal(t, KeywordSet{"evasive": 0, "resist": 1}, mouse.Keywords)

	assert.Equal(t, 3, defs[1].ShiftCost)
	assert.Equal(t, 1, defs[2].MoveCost)
	assert.True(t, defs[2].Inkable)
}

func TestImportCSVRejectsUnknownHeader(t *testing.T) {
	_, err := ImportCSV(strings.NewReader("name,id\nx,y\n"))
	assert.Error(t, err)
	_, err = ImportCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteYAMLLoadsBack(t *testing.T) {
	defs, _ := ImportCSV(strings.NewReader(exportCSV))

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, defs))

	cat := New()
	require.NoError(t, cat.Parse(buf.Bytes()))
	assert.Equal(t, []string{"brave-mouse", "brave-mouse-captain", "old-mill"}, cat.IDs())

	captain, ok := cat.Get("brave-mouse-captain")
	require.True(t, ok)
	assert.Equal(t, 3, captain.ShiftCost)
	assert.Equal(t, 3, captain.Keywords[state.KeywordShift])

	card, err := cat.Instantiate("brave-mouse", "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, card.Keywords["resist"])
}
