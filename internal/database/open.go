package database

import (
	"context"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// OpenStore connects to Postgres when a URL is given and otherwise keeps the
// data as JSON blobs under dataDir.
func OpenStore(ctx context.Context, postgresURL, dataDir string, log *logrus.Logger) (Store, error) {
	if postgresURL != "" {
		log.Infof("using postgres store")
		r, err := Open(ctx, postgresURL, log)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	log.Infof("using blob store in %s", dataDir)
	b, err := NewBlobStore(dataDir, log)
	if err != nil {
		return nil, err
	}
	return b, nil
}
