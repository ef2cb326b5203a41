package seatmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiagram = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:eic="http://www.intercity.pl/eic">
  <g data-class="2 class"><image status="1"/><text> 21 </text></g>
  <g data-class="2 class"><image status="0"/><text>22</text></g>
  <g data-class="first class"><image status="1"/><text>11</text></g>
  <g><rect width="10" height="10"/></g>
  <g data-class="2 class"><image status="1"/><text>23</text><eic:special ref="1"/></g>
  <g data-class="2 class"><image status="1"/><text>24</text><eic:special ref="7"/></g>
  <g data-class="2 class"><image status="1"/><text>25</text><eic:special ref="4"/></g>
  <g data-class="2 class"><image status="1"/><text>26</text><eic:special/></g>
</svg>`

func TestParse(t *testing.T) {
	seats, err := Parse(sampleDiagram)
	require.NoError(t, err)

	assert.Equal(t, map[string]SeatKind{
		"21": KindNormal,
		"23": KindBike,
		"24": KindQuiet,
		"26": KindNormal,
	}, seats)
}

func TestParseSkipsFirstClass(t *testing.T) {
	seats, err := Parse(sampleDiagram)
	require.NoError(t, err)

	assert.NotContains(t, seats, "11")
}

func TestParseExcludesOccupiedAndReservedCategory(t *testing.T) {
	seats, err := Parse(sampleDiagram)
	require.NoError(t, err)

	assert.NotContains(t, seats, "22", "occupied seat must not be available")
	assert.NotContains(t, seats, "25", "reserved-category special seat must not be available")
}

func TestParseNestedSeatGroups(t *testing.T) {
	diagram := `<svg xmlns="http://www.w3.org/2000/svg">
  <g transform="translate(0 0)">
    <g data-class="2 class"><g><image status="1"/></g><text>7</text></g>
  </g>
</svg>`

	seats, err := Parse(diagram)
	require.NoError(t, err)
	assert.Equal(t, map[string]SeatKind{"7": KindNormal}, seats)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		diagram string
	}{
		{"not xml", "this is not a diagram"},
		{"truncated", `<svg xmlns="http://www.w3.org/2000/svg"><g data-class="2 class"><image status="1"/>`},
		{"seat without number", `<svg xmlns="http://www.w3.org/2000/svg"><g data-class="2 class"><image status="1"/></g></svg>`},
		{"seat without status", `<svg xmlns="http://www.w3.org/2000/svg"><g data-class="2 class"><text>3</text></g></svg>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.diagram)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedDiagram))
		})
	}
}

func TestParseEmptyDiagram(t *testing.T) {
	seats, err := Parse(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	require.NoError(t, err)
	assert.Empty(t, seats)
}

func TestStripScripts(t *testing.T) {
	diagram := `<svg><script type="text/javascript">
alert("x");
</script><g/><script>more()</script></svg>`

	assert.Equal(t, `<svg><g/></svg>`, StripScripts(diagram))
}
