package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderTopics(t *testing.T) {
	b := NewBuilder("mav/v1")

	assert.Equal(t, "mav/v1/telemetry/drone-7", b.Telemetry("drone-7"))
	assert.Equal(t, "mav/v1/result/drone-7", b.Result("drone-7"))
	assert.Equal(t, "mav/v1/log/drone-7", b.Log("drone-7"))
	assert.Equal(t, "mav/v1/online/drone-7", b.Online("drone-7"))
}
