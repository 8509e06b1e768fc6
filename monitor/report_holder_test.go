package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viralmux/viralmux/pipeline"
)

func TestReportHolder(t *testing.T) {
	holder := NewReportHolder()
	assert.Nil(t, holder.Last())

	report := &pipeline.RunReport{Saved: 3}
	holder.Set(report)
	assert.Equal(t, report, holder.Last())
}
