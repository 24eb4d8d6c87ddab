package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	testData := map[string]struct {
		debug         bool
		expectedDebug bool
	}{
		"production":  {debug: false, expectedDebug: false},
		"development": {debug: true, expectedDebug: true},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			require.Nil(t, Init(td.debug))
			defer Sync()

			assert.Equal(t, td.expectedDebug, GetZapLogger().Core().Enabled(zapcore.DebugLevel))
			assert.NotNil(t, GetSugaredLogger())

			Infow("initialized", "debug", td.debug)
			Debugf("debug %t", td.debug)
		})
	}
}

func TestFallbackLogger(t *testing.T) {
	log = nil
	baseLogger = nil
	assert.NotNil(t, GetZapLogger())
	assert.NotNil(t, GetSugaredLogger())
	Warnf("fallback %s", "logger")
}
