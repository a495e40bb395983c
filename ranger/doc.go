/*
Package ranger assembles a complete switchback app from functional options and environment variables.

A Ranger owns every component the kernel needs:
the target registry, the service container, the middleware registry,
the route definitions and manifests, the snapshot store and the hydrator.
New applies default options first, then those passed in,
and finally boots: it restores the route collection from the snapshot store
or compiles it, verifies every route can be dispatched,
and builds the kernel and its HTTP router.

The following environment variables configure the defaults:

  - ENVIRONMENT: DEVELOPMENT, PRODUCTION, REVIEW, STAGING or TESTING
  - LOG_LEVEL: DEBUG, INFO, WARN, ERROR or FATAL
  - SENTRY_DSN: ship errors to Sentry
  - ROUTE_MANIFEST: comma-separated YAML or TOML manifests of routes
  - REDIS_URL: persist snapshots in Redis
  - ROUTE_SNAPSHOT_PATH: persist snapshots in files under this directory
  - SNAPSHOT_KEY: the key snapshots are stored under
  - SNAPSHOT_REBUILD: compile routes even when a snapshot exists
  - SNAPSHOT_TTL: how long Redis keeps a snapshot
  - RATE_LIMIT_RPS and RATE_LIMIT_BURST: limit each client IP address
  - DATABASE_URL or DATABASE_HOST, DATABASE_PORT, DATABASE_NAME, DATABASE_USER,
    DATABASE_PASSWORD and DATABASE_SSLMODE: hydrate entity parameters from PostgreSQL
  - PORT: the port the web server listens on

A .env file in the working directory is loaded before any of these are read.
*/
package ranger
