package session

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
)

var tokenKey = []byte("session:token")

// LevelDBTokenStore keeps the session token in a local LevelDB database,
// the on-disk analog of the browser's single localStorage slot.
type LevelDBTokenStore struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the token database at path.
func OpenLevelDB(path string) (*LevelDBTokenStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBTokenStore{db: db}, nil
}

func (s *LevelDBTokenStore) Read() (string, error) {
	val, err := s.db.Get(tokenKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (s *LevelDBTokenStore) Write(token string) error {
	return s.db.Put(tokenKey, []byte(token), nil)
}

func (s *LevelDBTokenStore) Close() error {
	return s.db.Close()
}
