package credential

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	path string
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "nested", "credentials.json")
}

func (s *StoreSuite) newStore() Store {
	store, err := New(s.path)
	s.Require().NoError(err)
	return store
}

func (s *StoreSuite) TestLoadWithoutFileIsNotFound() {
	_, err := s.newStore().Load()
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreSuite) TestSaveRejectsBlankKey() {
	store := s.newStore()

	s.ErrorIs(store.Save(""), ErrEmptyCredential)
	s.ErrorIs(store.Save("   \n"), ErrEmptyCredential)
	s.NoFileExists(s.path)
}

func (s *StoreSuite) TestSaveThenLoadTrimsKey() {
	store := s.newStore()

	s.Require().NoError(store.Save("  AIza-test  "))
	key, err := store.Load()

	s.Require().NoError(err)
	s.Equal("AIza-test", key)
}

func (s *StoreSuite) TestKeySurvivesNewStore() {
	s.Require().NoError(s.newStore().Save("AIza-persisted"))

	key, err := s.newStore().Load()

	s.Require().NoError(err)
	s.Equal("AIza-persisted", key)

	info, err := os.Stat(s.path)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o600), info.Mode().Perm())
}

func (s *StoreSuite) TestFileUsesFixedIdentifier() {
	s.Require().NoError(s.newStore().Save("AIza-json"))

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)
	s.JSONEq(`{"gemini_api_key":"AIza-json"}`, string(data))
}

func (s *StoreSuite) TestSaveOverwrites() {
	store := s.newStore()
	s.Require().NoError(store.Save("first"))
	s.Require().NoError(store.Save("second"))

	key, err := s.newStore().Load()
	s.Require().NoError(err)
	s.Equal("second", key)
}

func (s *StoreSuite) TestClear() {
	store := s.newStore()
	s.Require().NoError(store.Save("AIza-test"))

	s.Require().NoError(store.Clear())

	_, err := store.Load()
	s.ErrorIs(err, ErrNotFound)
	s.NoError(store.Clear())
}

func (s *StoreSuite) TestCorruptFileIsAnError() {
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.path), 0o700))
	s.Require().NoError(os.WriteFile(s.path, []byte("{not json"), 0o600))

	_, err := s.newStore().Load()
	s.Error(err)
	s.NotErrorIs(err, ErrNotFound)
}

func (s *StoreSuite) TestDefaultPath() {
	s.T().Setenv("XDG_CONFIG_HOME", s.T().TempDir())

	store, err := New("")

	s.Require().NoError(err)
	s.Equal(filepath.Join("polyglot-brief", "credentials.json"), filepath.Join(filepath.Base(filepath.Dir(store.Path())), filepath.Base(store.Path())))
}
