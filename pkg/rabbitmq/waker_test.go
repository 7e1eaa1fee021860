package rabbitmq

import (
	"clipnest-pipeline/constant"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRoutingKeyRoundTrip(t *testing.T) {
	for _, stage := range constant.Stages {
		got, ok := StageFromRoutingKey(RoutingKey(stage))
		assert.True(t, ok)
		assert.Equal(t, stage, got)
	}
	assert.Equal(t, "wake.enrich", RoutingKey(constant.StageEnrich))
}

func TestStageFromRoutingKey_Unknown(t *testing.T) {
	_, ok := StageFromRoutingKey("jobs.publish")
	assert.False(t, ok)
	_, ok = StageFromRoutingKey("wake.publish")
	assert.False(t, ok)
}
