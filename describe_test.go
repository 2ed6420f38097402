package zonemeter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_Workbook(t *testing.T) {
	output, err := Describe(createMeterWorkbook(t), testMeters())
	require.NoError(t, err)

	assert.Contains(t, output, "Workbook:")
	assert.Contains(t, output, "分区计量 (3x6) merged=1")
	assert.Contains(t, output, "A3 rows 3-6 2025年8月")
	assert.Contains(t, output, "荔湾2025年9月 (7x35) merged=0")
	assert.Contains(t, output, "Header row 4:")
	assert.Contains(t, output, `main_supply_A → G "荔新大道DN1200流量计 (m³)"`)
	assert.Contains(t, output, `west_total → C "西区 总表"`)
	assert.Contains(t, output, `missing unresolved ("东风路DN600")`)
}

func TestDescribe_NoMeters(t *testing.T) {
	output, err := Describe(createMeterWorkbook(t), nil)
	require.NoError(t, err)
	assert.NotContains(t, output, "Header row")
	assert.Contains(t, output, "Blocks:")
}

func TestDescribe_AmbiguousCandidates(t *testing.T) {
	s := NewMemSheet("src").
		Set(4, 2, "荔新大道DN1200").
		Set(4, 4, "荔新大道DN800")
	var b strings.Builder
	require.NoError(t, New().describeGrid(&b, s, []MeterLabel{{ID: "a", Label: "荔新大道"}}))
	assert.Contains(t, b.String(), "a → B")
	assert.Contains(t, b.String(), "(also matches D)")
}
