// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/leadhub/internal/app/system/auditlog"
	"github.com/dalemusser/leadhub/internal/app/system/cache"
	"github.com/dalemusser/leadhub/internal/app/system/ingestlock"
	"github.com/dalemusser/leadhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook after ConnectDB, so the
// backends created in Startup live behind the shared *backends pointer.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	backends *backends
}

// backends are built in Startup and released in Shutdown.
type backends struct {
	cache     cache.Cache
	memory    *cache.Memory // set when the in-process cache is in use
	locks     *ingestlock.Locker
	scheduler *workers.Scheduler
	audit     *auditlog.Logger
	files     storage.Store
}
