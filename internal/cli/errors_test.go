package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pthm/sqlscope"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitGeneral, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitConfig, ExitCode(ConfigError("loading configuration", nil)))
	assert.Equal(t, ExitDBConnect, ExitCode(fmt.Errorf("wrapped: %w", DBConnectError("connecting", nil))))
}

func TestExitError_Message(t *testing.T) {
	err := ConfigError("loading configuration", errors.New("bad yaml"))
	assert.Equal(t, "loading configuration: bad yaml", err.Error())
	assert.Equal(t, "no script", GeneralError("no script", nil).Error())
}

func TestRenderError(t *testing.T) {
	engine := sqlscope.New()

	_, err := engine.Query("SELECT {a").SQL()
	assert.Equal(t, ExitScriptParse, RenderError("rendering", err).Code)

	_, err = engine.Query("SELECT 1").SetCondition("a", sqlscope.Is, sqlscope.Number(1)).SQL()
	assert.Equal(t, ExitCondition, RenderError("rendering", err).Code)

	_, err = engine.Query("SELECT {a [a]}").SetCondition("a", sqlscope.Contains, sqlscope.Number(1)).SQL()
	assert.Equal(t, ExitCondition, RenderError("rendering", err).Code)

	assert.Equal(t, ExitGeneral, RenderError("rendering", errors.New("boom")).Code)
}
