package commands

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"veilfs/config"
	"veilfs/datastore"
	"veilfs/datastore/leveldb"
	"veilfs/datastore/mem"
	"veilfs/filter"
)

var log = logrus.New()

func openStore(cfg *config.Config) (*datastore.LocalStore, error) {
	switch cfg.DataStore.Engine {
	case "mem":
		return datastore.New(mem.New()), nil
	case "", "leveldb":
		eng, err := leveldb.Open(cfg.DataStore.Path)
		if err != nil {
			return nil, err
		}
		return datastore.New(eng), nil
	default:
		return nil, fmt.Errorf("unknown datastore engine %q", cfg.DataStore.Engine)
	}
}

func loadProfiles(cfg *config.Config) (*filter.ProfileSet, error) {
	ps := filter.NewProfileSet()
	if cfg.Filters.ProfileDir == "" {
		return ps, nil
	}
	if err := ps.LoadDir(cfg.Filters.ProfileDir); err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Profile directory %s does not exist, no profiles loaded", cfg.Filters.ProfileDir)
			return ps, nil
		}
		return nil, err
	}
	return ps, nil
}
