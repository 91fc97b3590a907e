package config

import (
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/dualcam/pkg/configdef"
)

type CreateConfigTestSuite struct {
	suite.Suite
	is                   *is.I
	configCreateResolver configdef.CreateResolver
	fs                   afero.Fs
	resetUserConfigDir   func()
}

func (suite *CreateConfigTestSuite) SetupSuite() {
	logging.CurrentLoggingLevel = logging.SilentLevel
	suite.is = is.New(suite.T())
	suite.fs = afero.NewMemMapFs()
	suite.configCreateResolver = DefaultCreateResolver()
	suite.resetUserConfigDir = overloadUserConfigDir(func() (string, error) { return "test", nil })

	// use in memory FS in implementation for tests
	fs = suite.fs
}

func (suite *CreateConfigTestSuite) TearDownSuite() {
	fs = afero.NewOsFs()
	suite.resetUserConfigDir()
	logging.CurrentLoggingLevel = logging.WarnLevel
}

func (suite *CreateConfigTestSuite) TearDownTest() {
	suite.is.NoErr(suite.fs.RemoveAll("test"))
}

func (suite *CreateConfigTestSuite) TestConfigCreate() {
	require.NoError(suite.T(), suite.configCreateResolver.Create())
	loadedConfig, err := suite.configCreateResolver.Resolve()

	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), Defaults(), loadedConfig)

	exists, err := afero.Exists(suite.fs, "test/tauraamui/dualcam/config.json")
	suite.is.NoErr(err)
	suite.is.True(exists)
}

func (suite *CreateConfigTestSuite) TestConfigCreateFailsDueToAlreadyExisting() {
	suite.is.NoErr(suite.configCreateResolver.Create())
	err := suite.configCreateResolver.Create()
	suite.is.Equal(err.Error(), "config file already exists")
	suite.is.True(errors.Is(err, configdef.ErrConfigAlreadyExists))
}

func (suite *CreateConfigTestSuite) TestWriteConfigToDiskOverwrites() {
	path := "test/tauraamui/dualcam/config.json"
	suite.is.NoErr(ensureParentDirExists(path))
	suite.is.NoErr(writeConfigToDisk([]byte("{}"), path, false))
	suite.is.NoErr(writeConfigToDisk([]byte(`{"debug": true}`), path, true))

	data, err := afero.ReadFile(suite.fs, path)
	suite.is.NoErr(err)
	suite.is.Equal(string(data), `{"debug": true}`)
}

func TestCreateConfigTestSuite(t *testing.T) {
	suite.Run(t, &CreateConfigTestSuite{})
}
