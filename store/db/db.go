package db

import (
	"github.com/pkg/errors"

	"github.com/quillchat/quill/internal/profile"
	"github.com/quillchat/quill/store"
	"github.com/quillchat/quill/store/db/postgres"
	"github.com/quillchat/quill/store/db/sqlite"
)

// NewDBDriver creates new db driver based on profile.
// SQLite is the default for single-node use; PostgreSQL is supported for
// installations that already run one.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'sqlite' and 'postgres' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
