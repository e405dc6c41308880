package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { GitCommit, BuildDate = "", "" })

	GitCommit, BuildDate = "", ""
	assert.Equal(t, Version, String())

	GitCommit = "abc1234"
	assert.Equal(t, Version+" (abc1234)", String())

	BuildDate = "2026-08-30"
	assert.Equal(t, Version+" (abc1234, 2026-08-30)", String())

	GitCommit = ""
	assert.Equal(t, Version+" (2026-08-30)", String())
}
